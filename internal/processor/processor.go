// Package processor wires the transaction feed, the ledger and the report
// sink into one batch run.
package processor

import (
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"payments-engine/internal/csvio"
	"payments-engine/internal/errors"
	"payments-engine/internal/ledger"
)

// Stats summarizes one run.
type Stats struct {
	Applied        int // records accepted by the ledger
	Rejected       int // well-formed records refused on business grounds
	SkippedRecords int // rows the reader could not decode
}

// Processor drains a transaction feed into a ledger and writes the final
// snapshot to a sink.
//
// The run is resilient per record: rows the feed cannot decode and records the
// ledger rejects are logged and skipped. Only failures of the feed or the sink
// themselves abort the run.
type Processor struct {
	ledger *ledger.Ledger
	logger *slog.Logger
}

func New(ledger *ledger.Ledger, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{
		ledger: ledger,
		logger: logger,
	}
}

// Run reads transactions until EOF, applies them in order and writes the
// account report. The returned Stats are valid even when Run fails partway.
func (p *Processor) Run(reader *csvio.Reader, writer *csvio.Writer) (Stats, error) {
	runID := uuid.New()
	logger := p.logger.With("run_id", runID)

	var stats Stats
	for {
		tx, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var recErr *csvio.RecordError
			if stderrors.As(err, &recErr) {
				stats.SkippedRecords++
				logger.Warn("skipping malformed record", "line", recErr.Line, "error", recErr.Err)
				continue
			}
			return stats, fmt.Errorf("transaction feed failed: %w", err)
		}

		if err := p.ledger.Apply(tx); err != nil {
			// Business-rule rejections are expected input and useful as
			// audit or fraud signals downstream, so they are logged and the
			// run continues.
			var appErr *errors.AppError
			if stderrors.As(err, &appErr) {
				stats.Rejected++
				logger.Warn("transaction rejected",
					"type", tx.Type,
					"client_id", tx.ClientID,
					"transaction_id", tx.TransactionID,
					"code", appErr.Code,
				)
				continue
			}
			return stats, err
		}
		stats.Applied++
	}

	if err := writer.WriteReports(p.ledger.Snapshot()); err != nil {
		return stats, fmt.Errorf("writing accounts report: %w", err)
	}

	logger.Info("run complete",
		"applied", stats.Applied,
		"rejected", stats.Rejected,
		"skipped_records", stats.SkippedRecords,
	)
	return stats, nil
}
