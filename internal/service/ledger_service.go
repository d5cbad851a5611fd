package service

import (
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"payments-engine/internal/domain"
	"payments-engine/internal/ledger"
	"payments-engine/internal/repository"
)

// LedgerService exposes the ledger to concurrent callers. The ledger's
// contract is single-writer, so every operation goes through one mutex; the
// HTTP handlers never touch the ledger directly.
type LedgerService struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	audit  *repository.SnapshotStore // nil when no audit store is configured
	logger *slog.Logger
}

func NewLedgerService(l *ledger.Ledger, audit *repository.SnapshotStore, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LedgerService{
		ledger: l,
		audit:  audit,
		logger: logger,
	}
}

// Apply feeds one transaction record to the ledger.
func (s *LedgerService) Apply(tx domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ledger.Apply(tx); err != nil {
		s.logger.Warn("transaction rejected",
			"type", tx.Type,
			"client_id", tx.ClientID,
			"transaction_id", tx.TransactionID,
			"error", err,
		)
		return err
	}

	s.logger.Info("transaction applied",
		"type", tx.Type,
		"client_id", tx.ClientID,
		"transaction_id", tx.TransactionID,
	)
	return nil
}

// Snapshot returns the current state of all accounts.
func (s *LedgerService) Snapshot() []domain.AccountReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Snapshot()
}

// Account returns the current state of one account.
func (s *LedgerService) Account(clientID domain.ClientID) (domain.AccountReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Account(clientID)
}

// AuditEnabled reports whether snapshots can be persisted.
func (s *LedgerService) AuditEnabled() bool {
	return s.audit != nil
}

// PersistSnapshot writes the current snapshot to the audit store and returns
// the run id it was stored under.
func (s *LedgerService) PersistSnapshot() (uuid.UUID, error) {
	reports := s.Snapshot()

	runID := uuid.New()
	if err := s.audit.SaveSnapshot(runID, reports); err != nil {
		return uuid.Nil, err
	}
	return runID, nil
}
