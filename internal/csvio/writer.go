package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"payments-engine/internal/domain"
)

// Writer renders account reports as CSV with the header
// client,available,held,total,locked. Decimal columns carry exactly four
// fractional digits.
type Writer struct {
	csv *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// WriteReports writes the header followed by one row per account and flushes.
func (w *Writer) WriteReports(reports []domain.AccountReport) error {
	if err := w.csv.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for _, report := range reports {
		row := []string{
			strconv.FormatUint(uint64(report.ClientID), 10),
			report.Available.StringFixed(4),
			report.Held.StringFixed(4),
			report.Total.StringFixed(4),
			strconv.FormatBool(report.Locked),
		}
		if err := w.csv.Write(row); err != nil {
			return err
		}
	}
	w.csv.Flush()
	return w.csv.Error()
}
