package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payments-engine/internal/domain"
	"payments-engine/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// requireAccount fetches an account and checks balances plus the
// total == available + held invariant in one place.
func requireAccount(t *testing.T, l *Ledger, clientID domain.ClientID, available, held string, locked bool) {
	t.Helper()

	report, err := l.Account(clientID)
	require.NoError(t, err)
	assert.True(t, report.Available.Equal(dec(available)),
		"available: got %s want %s", report.Available, available)
	assert.True(t, report.Held.Equal(dec(held)),
		"held: got %s want %s", report.Held, held)
	assert.True(t, report.Total.Equal(report.Available.Add(report.Held)),
		"total %s != available %s + held %s", report.Total, report.Available, report.Held)
	assert.Equal(t, locked, report.Locked)
}

func TestDeposit(t *testing.T) {
	t.Run("credits available and records the transaction", func(t *testing.T) {
		l := New()

		require.NoError(t, l.Deposit(1, 101, dec("10.5")))

		requireAccount(t, l, 1, "10.5", "0", false)
	})

	t.Run("accumulates across deposits", func(t *testing.T) {
		l := New()

		require.NoError(t, l.Deposit(1, 101, dec("0.0001")))
		require.NoError(t, l.Deposit(1, 102, dec("0.0002")))

		requireAccount(t, l, 1, "0.0003", "0", false)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l := New()

		assert.ErrorIs(t, l.Deposit(1, 101, dec("-10")), errors.ErrInvalidAmount)
		assert.ErrorIs(t, l.Deposit(1, 101, dec("0")), errors.ErrInvalidAmount)

		_, err := l.Account(1)
		assert.ErrorIs(t, err, errors.ErrAccountNotFound)
	})

	t.Run("rejects a reused transaction id", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("10")))

		assert.ErrorIs(t, l.Deposit(1, 101, dec("20")), errors.ErrDuplicateTransaction)

		requireAccount(t, l, 1, "10", "0", false)
	})

	t.Run("rejects a transaction id used by another client", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("10")))

		assert.ErrorIs(t, l.Deposit(2, 101, dec("20")), errors.ErrDuplicateTransaction)

		_, err := l.Account(2)
		assert.ErrorIs(t, err, errors.ErrAccountNotFound)
	})

	t.Run("rejects deposits on a locked account", func(t *testing.T) {
		l := newLockedAccount(t)

		assert.ErrorIs(t, l.Deposit(1, 300, dec("20")), errors.ErrAccountLocked)
	})
}

func TestWithdrawal(t *testing.T) {
	t.Run("debits available and records the transaction", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		require.NoError(t, l.Withdrawal(1, 102, dec("10")))

		requireAccount(t, l, 1, "90", "0", false)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Withdrawal(1, 102, dec("0")), errors.ErrInvalidAmount)
		assert.ErrorIs(t, l.Withdrawal(1, 102, dec("-5")), errors.ErrInvalidAmount)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("rejects when available funds are insufficient", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("10")))
		require.NoError(t, l.Withdrawal(1, 102, dec("10")))

		assert.ErrorIs(t, l.Withdrawal(1, 103, dec("0.2")), errors.ErrInsufficientFunds)

		requireAccount(t, l, 1, "0", "0", false)
	})

	t.Run("held funds are not withdrawable", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))
		require.NoError(t, l.Dispute(1, 101))

		assert.ErrorIs(t, l.Withdrawal(1, 102, dec("1")), errors.ErrInsufficientFunds)

		requireAccount(t, l, 1, "0", "100", false)
	})

	t.Run("unknown client fails without creating an account", func(t *testing.T) {
		l := New()

		assert.ErrorIs(t, l.Withdrawal(9, 101, dec("10")), errors.ErrInsufficientFunds)

		assert.Empty(t, l.Snapshot())
	})

	t.Run("rejects a reused transaction id", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Withdrawal(1, 101, dec("5")), errors.ErrDuplicateTransaction)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("rejects withdrawals on a locked account", func(t *testing.T) {
		l := newLockedAccount(t)

		assert.ErrorIs(t, l.Withdrawal(1, 300, dec("1")), errors.ErrAccountLocked)
	})
}

func TestDispute(t *testing.T) {
	t.Run("disputed deposit moves funds from available to held", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("90")))
		require.NoError(t, l.Deposit(1, 102, dec("10")))

		require.NoError(t, l.Dispute(1, 102))

		requireAccount(t, l, 1, "90", "10", false)
	})

	t.Run("disputed withdrawal records a negative hold", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("110")))
		require.NoError(t, l.Withdrawal(1, 102, dec("10")))

		require.NoError(t, l.Dispute(1, 102))

		// Available stays put: the withdrawal already removed the funds.
		requireAccount(t, l, 1, "100", "-10", false)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Dispute(1, 999), errors.ErrTransactionNotFound)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("client mismatch is reported as not found", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Dispute(2, 101), errors.ErrTransactionNotFound)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("second dispute of the same transaction fails", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))
		require.NoError(t, l.Dispute(1, 101))

		assert.ErrorIs(t, l.Dispute(1, 101), errors.ErrInvalidDisputeState)

		requireAccount(t, l, 1, "0", "100", false)
	})

	t.Run("resolved transaction cannot be disputed again", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))
		require.NoError(t, l.Dispute(1, 101))
		require.NoError(t, l.Resolve(1, 101))

		assert.ErrorIs(t, l.Dispute(1, 101), errors.ErrInvalidDisputeState)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("allowed on a locked account", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("50")))
		require.NoError(t, l.Deposit(1, 102, dec("10")))
		require.NoError(t, l.Dispute(1, 102))
		require.NoError(t, l.Chargeback(1, 102))
		requireAccount(t, l, 1, "50", "0", true)

		require.NoError(t, l.Dispute(1, 101))

		requireAccount(t, l, 1, "0", "50", true)
	})
}

func TestResolve(t *testing.T) {
	t.Run("deposit dispute round-trips to the pre-dispute state", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("90")))
		require.NoError(t, l.Deposit(1, 102, dec("10")))
		require.NoError(t, l.Dispute(1, 102))
		requireAccount(t, l, 1, "90", "10", false)

		require.NoError(t, l.Resolve(1, 102))

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("withdrawal dispute round-trips to the pre-dispute state", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("110")))
		require.NoError(t, l.Withdrawal(1, 102, dec("10")))
		require.NoError(t, l.Dispute(1, 102))
		requireAccount(t, l, 1, "100", "-10", false)

		require.NoError(t, l.Resolve(1, 102))

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("requires a disputed transaction", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Resolve(1, 101), errors.ErrInvalidDisputeState)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		l := New()

		assert.ErrorIs(t, l.Resolve(1, 101), errors.ErrTransactionNotFound)
	})

	t.Run("cannot resolve twice", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))
		require.NoError(t, l.Dispute(1, 101))
		require.NoError(t, l.Resolve(1, 101))

		assert.ErrorIs(t, l.Resolve(1, 101), errors.ErrInvalidDisputeState)
	})
}

func TestChargeback(t *testing.T) {
	t.Run("charged-back deposit removes held funds and locks the account", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("90")))
		require.NoError(t, l.Deposit(1, 102, dec("10")))
		require.NoError(t, l.Dispute(1, 102))

		require.NoError(t, l.Chargeback(1, 102))

		requireAccount(t, l, 1, "90", "0", true)
	})

	t.Run("charged-back withdrawal credits total but not available", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("110")))
		require.NoError(t, l.Withdrawal(1, 102, dec("10")))
		require.NoError(t, l.Dispute(1, 102))
		requireAccount(t, l, 1, "100", "-10", false)

		require.NoError(t, l.Chargeback(1, 102))

		requireAccount(t, l, 1, "100", "0", true)
	})

	t.Run("locked account rejects further deposits and withdrawals", func(t *testing.T) {
		l := newLockedAccount(t)

		assert.ErrorIs(t, l.Deposit(1, 301, dec("5")), errors.ErrAccountLocked)
		assert.ErrorIs(t, l.Withdrawal(1, 302, dec("5")), errors.ErrAccountLocked)
	})

	t.Run("requires a disputed transaction", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))

		assert.ErrorIs(t, l.Chargeback(1, 101), errors.ErrInvalidDisputeState)

		requireAccount(t, l, 1, "100", "0", false)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		l := New()

		assert.ErrorIs(t, l.Chargeback(1, 101), errors.ErrTransactionNotFound)
	})

	t.Run("charged-back transaction is terminal", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(1, 101, dec("100")))
		require.NoError(t, l.Dispute(1, 101))
		require.NoError(t, l.Chargeback(1, 101))

		assert.ErrorIs(t, l.Dispute(1, 101), errors.ErrInvalidDisputeState)
		assert.ErrorIs(t, l.Resolve(1, 101), errors.ErrInvalidDisputeState)
		assert.ErrorIs(t, l.Chargeback(1, 101), errors.ErrInvalidDisputeState)
	})
}

func TestApply(t *testing.T) {
	t.Run("dispatches by record type", func(t *testing.T) {
		l := New()
		records := []domain.Transaction{
			{Type: domain.TypeDeposit, ClientID: 1, TransactionID: 101, Amount: dec("100")},
			{Type: domain.TypeWithdrawal, ClientID: 1, TransactionID: 102, Amount: dec("30")},
			{Type: domain.TypeDispute, ClientID: 1, TransactionID: 101},
			{Type: domain.TypeResolve, ClientID: 1, TransactionID: 101},
			{Type: domain.TypeDispute, ClientID: 1, TransactionID: 102},
			{Type: domain.TypeChargeback, ClientID: 1, TransactionID: 102},
		}

		for _, tx := range records {
			require.NoError(t, l.Apply(tx), "record %+v", tx)
		}

		requireAccount(t, l, 1, "70", "30", true)
	})

	t.Run("invariant holds after every accepted record", func(t *testing.T) {
		l := New()
		records := []domain.Transaction{
			{Type: domain.TypeDeposit, ClientID: 1, TransactionID: 1, Amount: dec("100.1234")},
			{Type: domain.TypeDeposit, ClientID: 2, TransactionID: 2, Amount: dec("55")},
			{Type: domain.TypeWithdrawal, ClientID: 1, TransactionID: 3, Amount: dec("0.1234")},
			{Type: domain.TypeDispute, ClientID: 1, TransactionID: 1},
			{Type: domain.TypeDeposit, ClientID: 2, TransactionID: 4, Amount: dec("0.0001")},
			{Type: domain.TypeResolve, ClientID: 1, TransactionID: 1},
			{Type: domain.TypeDispute, ClientID: 2, TransactionID: 4},
			{Type: domain.TypeChargeback, ClientID: 2, TransactionID: 4},
		}

		for _, tx := range records {
			require.NoError(t, l.Apply(tx))
			for _, report := range l.Snapshot() {
				assert.True(t, report.Total.Equal(report.Available.Add(report.Held)),
					"after %+v: total %s != %s + %s", tx, report.Total, report.Available, report.Held)
			}
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		l := New()

		err := l.Apply(domain.Transaction{Type: "transfer", ClientID: 1, TransactionID: 1})

		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.InvalidInput, appErr.Code)
	})
}

func TestSnapshot(t *testing.T) {
	t.Run("empty ledger", func(t *testing.T) {
		assert.Empty(t, New().Snapshot())
	})

	t.Run("ordered by client id with copies of the state", func(t *testing.T) {
		l := New()
		require.NoError(t, l.Deposit(3, 301, dec("300")))
		require.NoError(t, l.Deposit(1, 101, dec("100.0001")))
		require.NoError(t, l.Deposit(2, 201, dec("200")))
		require.NoError(t, l.Dispute(2, 201))

		reports := l.Snapshot()

		require.Len(t, reports, 3)
		assert.Equal(t, domain.ClientID(1), reports[0].ClientID)
		assert.Equal(t, domain.ClientID(2), reports[1].ClientID)
		assert.Equal(t, domain.ClientID(3), reports[2].ClientID)
		assert.True(t, reports[1].Available.Equal(dec("0")))
		assert.True(t, reports[1].Held.Equal(dec("200")))

		// Mutating the returned slice must not leak into the ledger.
		reports[0].Available = dec("999")
		requireAccount(t, l, 1, "100.0001", "0", false)
	})
}

// newLockedAccount builds a ledger whose client 1 went through a deposit,
// dispute and chargeback, leaving the account locked with 50 available.
func newLockedAccount(t *testing.T) *Ledger {
	t.Helper()

	l := New()
	require.NoError(t, l.Deposit(1, 201, dec("50")))
	require.NoError(t, l.Deposit(1, 202, dec("10")))
	require.NoError(t, l.Dispute(1, 202))
	require.NoError(t, l.Chargeback(1, 202))
	return l
}
