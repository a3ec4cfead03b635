package codec

import (
	btpb "cloud.google.com/go/bigtable/apiv2/bigtablepb"
	"github.com/litetable/litetable-bigtable/internal/litetable"
)

// RowToProto converts a whole row, as returned by ReadModifyWriteRow.
func RowToProto(r *litetable.Row) *btpb.Row {
	if r == nil {
		return nil
	}
	out := &btpb.Row{Key: r.Key, Families: make([]*btpb.Family, 0, len(r.Families))}
	for _, f := range r.Families {
		pf := &btpb.Family{Name: f.Name, Columns: make([]*btpb.Column, 0, len(f.Columns))}
		for _, c := range f.Columns {
			pc := &btpb.Column{Qualifier: c.Qualifier, Cells: make([]*btpb.Cell, 0, len(c.Cells))}
			for _, cell := range c.Cells {
				pc.Cells = append(pc.Cells, &btpb.Cell{
					TimestampMicros: cell.TimestampMicros,
					Value:           cell.Value,
					Labels:          cell.Labels,
				})
			}
			pf.Columns = append(pf.Columns, pc)
		}
		out.Families = append(out.Families, pf)
	}
	return out
}

// RowFromProto converts a wire row. The wire row is trusted to be in canonical order.
func RowFromProto(r *btpb.Row) *litetable.Row {
	if r == nil {
		return nil
	}
	var cells []litetable.RowCell
	for _, f := range r.GetFamilies() {
		for _, c := range f.GetColumns() {
			for _, cell := range c.GetCells() {
				cells = append(cells, litetable.RowCell{
					Family:    f.GetName(),
					Qualifier: c.GetQualifier(),
					Cell: litetable.Cell{
						TimestampMicros: cell.GetTimestampMicros(),
						Value:           cell.GetValue(),
						Labels:          cell.GetLabels(),
					},
				})
			}
		}
	}
	return litetable.NewRow(r.GetKey(), cells)
}
