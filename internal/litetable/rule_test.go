package litetable

import (
	"errors"
	"github.com/stretchr/testify/require"
	"math"
	"testing"
)

func counter(v int64) []byte {
	b, err := ApplyRule(&IncrementAmount{Amount: v}, nil)
	if err != nil {
		panic(err)
	}
	return b
}

func TestValidateRules(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		rules   []ReadModifyWriteRule
		wantErr bool
	}{
		"empty list": {
			wantErr: true,
		},
		"valid rules": {
			rules: []ReadModifyWriteRule{
				&AppendValue{Family: "cf", Qualifier: []byte("q"), Value: []byte("x")},
				&IncrementAmount{Family: "cf", Qualifier: []byte("n"), Amount: -3},
			},
		},
		"bad family name": {
			rules:   []ReadModifyWriteRule{&IncrementAmount{Family: "cf:bad", Amount: 1}},
			wantErr: true,
		},
		"nil rule": {
			rules:   []ReadModifyWriteRule{nil},
			wantErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			err := ValidateRules(test.rules)
			if test.wantErr {
				req.True(errors.Is(err, ErrInvalidMutation))
				return
			}
			req.NoError(err)
		})
	}
}

func TestApplyRule(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		rule    ReadModifyWriteRule
		prev    []byte
		want    []byte
		wantErr bool
	}{
		"append to empty column": {
			rule: &AppendValue{Value: []byte("ab")},
			want: []byte("ab"),
		},
		"append to value": {
			rule: &AppendValue{Value: []byte("cd")},
			prev: []byte("ab"),
			want: []byte("abcd"),
		},
		"increment empty column": {
			rule: &IncrementAmount{Amount: 5},
			want: []byte{0, 0, 0, 0, 0, 0, 0, 5},
		},
		"increment below zero": {
			rule: &IncrementAmount{Amount: -7},
			prev: counter(2),
			want: counter(-5),
		},
		"increment wraps": {
			rule: &IncrementAmount{Amount: 1},
			prev: counter(math.MaxInt64),
			want: counter(math.MinInt64),
		},
		"increment non counter": {
			rule:    &IncrementAmount{Amount: 1},
			prev:    []byte("abc"),
			wantErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			req := require.New(t)
			got, err := ApplyRule(test.rule, test.prev)
			if test.wantErr {
				req.True(errors.Is(err, ErrInvalidMutation))
				return
			}
			req.NoError(err)
			req.Equal(test.want, got)
		})
	}
}

func TestApplyRule_DoesNotAlias(t *testing.T) {
	req := require.New(t)
	prev := make([]byte, 2, 16)
	copy(prev, "ab")

	got, err := ApplyRule(&AppendValue{Value: []byte("c")}, prev)
	req.NoError(err)
	req.Equal([]byte("abc"), got)
	req.Equal([]byte("ab"), prev)
	req.Equal(byte(0), prev[:3][2])
}
