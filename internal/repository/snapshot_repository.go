package repository

import (
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"payments-engine/internal/domain"
	"payments-engine/internal/errors"
)

// SnapshotStore persists account snapshots to Postgres for audit. Each
// persisted snapshot is keyed by a run id so successive runs of the engine can
// be compared after the fact.
type SnapshotStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSnapshotStore(db *sql.DB, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SnapshotStore{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the snapshot table if it does not exist yet.
func (s *SnapshotStore) EnsureSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS account_snapshots (
			run_id     UUID        NOT NULL,
			client_id  INTEGER     NOT NULL,
			available  NUMERIC     NOT NULL,
			held       NUMERIC     NOT NULL,
			total      NUMERIC     NOT NULL,
			locked     BOOLEAN     NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, client_id)
		)
	`
	if _, err := s.db.Exec(query); err != nil {
		return errors.NewAppError(errors.InternalError, "failed to create snapshot schema").WithDetails(err.Error())
	}
	return nil
}

// SaveSnapshot writes all account reports under one run id in a single
// database transaction, so a snapshot is either fully persisted or absent.
func (s *SnapshotStore) SaveSnapshot(runID uuid.UUID, reports []domain.AccountReport) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}
	defer tx.Rollback()

	query := `
		INSERT INTO account_snapshots (run_id, client_id, available, held, total, locked, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	now := time.Now().UTC()
	for _, report := range reports {
		_, err := tx.Exec(
			query,
			runID,
			int64(report.ClientID),
			report.Available.String(),
			report.Held.String(),
			report.Total.String(),
			report.Locked,
			now,
		)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
				s.logger.Warn("snapshot already persisted for run", "run_id", runID, "client_id", report.ClientID)
				return errors.ErrDuplicateTransaction.WithDetails("snapshot run already persisted")
			}
			s.logger.Error("failed to persist account snapshot", "run_id", runID, "client_id", report.ClientID, "error", err)
			return errors.NewAppError(errors.InternalError, "failed to persist snapshot").WithDetails(err.Error())
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewAppError(errors.InternalError, "failed to commit snapshot").WithDetails(err.Error())
	}

	s.logger.Info("snapshot persisted", "run_id", runID, "accounts", len(reports))
	return nil
}

// GetSnapshot reads back the reports persisted under a run id, ordered by
// client id.
func (s *SnapshotStore) GetSnapshot(runID uuid.UUID) ([]domain.AccountReport, error) {
	query := `
		SELECT client_id, available, held, total, locked
		FROM account_snapshots
		WHERE run_id = $1
		ORDER BY client_id
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to query snapshot").WithDetails(err.Error())
	}
	defer rows.Close()

	var reports []domain.AccountReport
	for rows.Next() {
		var (
			clientID               int64
			available, held, total string
			locked                 bool
		)
		if err := rows.Scan(&clientID, &available, &held, &total, &locked); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan snapshot row").WithDetails(err.Error())
		}
		report := domain.AccountReport{
			ClientID: domain.ClientID(clientID),
			Locked:   locked,
		}
		if report.Available, err = decimal.NewFromString(available); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "invalid stored available amount").WithDetails(err.Error())
		}
		if report.Held, err = decimal.NewFromString(held); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "invalid stored held amount").WithDetails(err.Error())
		}
		if report.Total, err = decimal.NewFromString(total); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "invalid stored total amount").WithDetails(err.Error())
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to read snapshot rows").WithDetails(err.Error())
	}
	return reports, nil
}
