package ledger

import (
	"sort"

	"github.com/shopspring/decimal"

	"payments-engine/internal/domain"
	"payments-engine/internal/errors"
)

// Ledger owns every client account and the history of all deposits and
// withdrawals ever applied. It is the sole mutator of account state.
//
// The contract is single-writer: callers apply transactions strictly one at a
// time in receipt order. The Ledger does no locking of its own; concurrent
// callers must serialize access themselves (see service.LedgerService).
//
// Every operation either fully applies its effect or returns an
// *errors.AppError and leaves all state untouched. A failed operation never
// materializes an account.
type Ledger struct {
	accounts     map[domain.ClientID]*domain.Account
	transactions map[domain.TransactionID]*domain.TransactionEntry
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{
		accounts:     make(map[domain.ClientID]*domain.Account),
		transactions: make(map[domain.TransactionID]*domain.TransactionEntry),
	}
}

// Apply dispatches one input record to the matching operation.
func (l *Ledger) Apply(tx domain.Transaction) error {
	switch tx.Type {
	case domain.TypeDeposit:
		return l.Deposit(tx.ClientID, tx.TransactionID, tx.Amount)
	case domain.TypeWithdrawal:
		return l.Withdrawal(tx.ClientID, tx.TransactionID, tx.Amount)
	case domain.TypeDispute:
		return l.Dispute(tx.ClientID, tx.TransactionID)
	case domain.TypeResolve:
		return l.Resolve(tx.ClientID, tx.TransactionID)
	case domain.TypeChargeback:
		return l.Chargeback(tx.ClientID, tx.TransactionID)
	default:
		return errors.NewAppErrorf(errors.InvalidInput, "unknown transaction type %q", tx.Type)
	}
}

// Deposit credits amount to the client's available funds and records the
// transaction for later dispute.
func (l *Ledger) Deposit(clientID domain.ClientID, txID domain.TransactionID, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	if _, exists := l.transactions[txID]; exists {
		return errors.ErrDuplicateTransaction
	}
	if acct, ok := l.accounts[clientID]; ok && acct.Locked {
		return errors.ErrAccountLocked
	}

	acct := l.getOrCreateAccount(clientID)
	acct.Available = acct.Available.Add(amount)
	l.transactions[txID] = &domain.TransactionEntry{
		TransactionID: txID,
		ClientID:      clientID,
		Type:          domain.TypeDeposit,
		Amount:        amount,
		State:         domain.StateNormal,
	}
	return nil
}

// Withdrawal debits amount from the client's available funds and records the
// transaction for later dispute.
func (l *Ledger) Withdrawal(clientID domain.ClientID, txID domain.TransactionID, amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return errors.ErrInvalidAmount
	}
	if _, exists := l.transactions[txID]; exists {
		return errors.ErrDuplicateTransaction
	}

	acct, ok := l.accounts[clientID]
	if ok && acct.Locked {
		return errors.ErrAccountLocked
	}
	// A client never seen before has zero available funds, so the check below
	// rejects the withdrawal without creating the account.
	if !ok || acct.Available.LessThan(amount) {
		return errors.ErrInsufficientFunds
	}

	acct.Available = acct.Available.Sub(amount)
	l.transactions[txID] = &domain.TransactionEntry{
		TransactionID: txID,
		ClientID:      clientID,
		Type:          domain.TypeWithdrawal,
		Amount:        amount,
		State:         domain.StateNormal,
	}
	return nil
}

// Dispute freezes the referenced transaction's amount pending resolution.
//
// For a disputed deposit the amount moves from available to held, leaving
// total unchanged. For a disputed withdrawal the funds already left the
// account, so only held is debited, going negative by the withdrawn amount;
// total dips by that amount until the dispute is resolved or charged back.
// Disputes are accepted on locked accounts; locking only blocks new deposits
// and withdrawals.
func (l *Ledger) Dispute(clientID domain.ClientID, txID domain.TransactionID) error {
	entry, err := l.findEntry(clientID, txID, domain.StateNormal)
	if err != nil {
		return err
	}

	acct := l.accounts[entry.ClientID]
	switch entry.Type {
	case domain.TypeDeposit:
		acct.Available = acct.Available.Sub(entry.Amount)
		acct.Held = acct.Held.Add(entry.Amount)
	case domain.TypeWithdrawal:
		acct.Held = acct.Held.Sub(entry.Amount)
	}
	entry.State = domain.StateDisputed
	return nil
}

// Resolve releases a dispute, restoring available and held to their
// pre-dispute values. The transaction cannot be disputed again afterwards.
func (l *Ledger) Resolve(clientID domain.ClientID, txID domain.TransactionID) error {
	entry, err := l.findEntry(clientID, txID, domain.StateDisputed)
	if err != nil {
		return err
	}

	acct := l.accounts[entry.ClientID]
	switch entry.Type {
	case domain.TypeDeposit:
		acct.Available = acct.Available.Add(entry.Amount)
		acct.Held = acct.Held.Sub(entry.Amount)
	case domain.TypeWithdrawal:
		acct.Held = acct.Held.Add(entry.Amount)
	}
	entry.State = domain.StateResolved
	return nil
}

// Chargeback finalizes a dispute against the client and permanently locks the
// account.
//
// A charged-back deposit removes the held amount, reducing total. A
// charged-back withdrawal credits the amount back into held, raising total
// without restoring available: the credit stays held for review rather than
// becoming withdrawable. Whether it should also restore available is a known
// ambiguity; do not "fix" this without coordinating with downstream report
// consumers.
func (l *Ledger) Chargeback(clientID domain.ClientID, txID domain.TransactionID) error {
	entry, err := l.findEntry(clientID, txID, domain.StateDisputed)
	if err != nil {
		return err
	}

	acct := l.accounts[entry.ClientID]
	switch entry.Type {
	case domain.TypeDeposit:
		acct.Held = acct.Held.Sub(entry.Amount)
	case domain.TypeWithdrawal:
		acct.Held = acct.Held.Add(entry.Amount)
	}
	acct.Locked = true
	entry.State = domain.StateChargedBack
	return nil
}

// Snapshot returns the state of every account ever touched, ordered by client
// id. The returned reports are copies; mutating them does not affect the
// ledger.
func (l *Ledger) Snapshot() []domain.AccountReport {
	reports := make([]domain.AccountReport, 0, len(l.accounts))
	for _, acct := range l.accounts {
		reports = append(reports, acct.Report())
	}
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].ClientID < reports[j].ClientID
	})
	return reports
}

// Account returns the current state of a single account.
func (l *Ledger) Account(clientID domain.ClientID) (domain.AccountReport, error) {
	acct, ok := l.accounts[clientID]
	if !ok {
		return domain.AccountReport{}, errors.ErrAccountNotFound
	}
	return acct.Report(), nil
}

// findEntry locates the disputable entry for a dispute/resolve/chargeback
// record and validates ownership and state. A mismatched client is reported
// the same way as a missing transaction so the caller learns nothing about
// other clients' transactions.
func (l *Ledger) findEntry(clientID domain.ClientID, txID domain.TransactionID, want domain.DisputeState) (*domain.TransactionEntry, error) {
	entry, ok := l.transactions[txID]
	if !ok || entry.ClientID != clientID {
		return nil, errors.ErrTransactionNotFound
	}
	if entry.State != want {
		return nil, errors.ErrInvalidDisputeState
	}
	return entry, nil
}

func (l *Ledger) getOrCreateAccount(clientID domain.ClientID) *domain.Account {
	acct, ok := l.accounts[clientID]
	if !ok {
		acct = domain.NewAccount(clientID)
		l.accounts[clientID] = acct
	}
	return acct
}
