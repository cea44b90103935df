package reporting

import (
	"fmt"
	"strings"

	"equity-feature-lab/internal/domain"
)

// RenderCSV renders the per-instrument rows as CSV string.
func RenderCSV(rows []InstrumentRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("instrument_id,status,rows,first_date,last_date,last_adj_close,error_kind\n")

	for _, r := range rows {
		first, last := "", ""
		if !r.FirstDate.IsZero() {
			first = r.FirstDate.Format(domain.DateLayout)
			last = r.LastDate.Format(domain.DateLayout)
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%d,%s,%s,%.6f,%s\n",
			r.InstrumentID,
			r.Status,
			r.Rows,
			first,
			last,
			r.LastAdjClose,
			r.Kind,
		))
	}

	return sb.String()
}
