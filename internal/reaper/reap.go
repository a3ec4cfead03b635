package reaper

import (
	"github.com/rs/zerolog/log"
	"time"
)

// Collect runs one garbage collection pass and returns the number of cells removed.
func (r *Reaper) Collect() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	start := time.Now()
	removed := r.storage.GarbageCollect()
	if removed > 0 {
		log.Info().Int("removed", removed).Msgf("Garbage collection complete in %v", time.Since(start))
	} else {
		log.Debug().Msg("Garbage collection found nothing to remove")
	}
	return removed
}
