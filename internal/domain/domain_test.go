package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTransactionType(t *testing.T) {
	t.Run("accepts the closed set", func(t *testing.T) {
		for _, name := range []string{"deposit", "withdrawal", "dispute", "resolve", "chargeback"} {
			txType, err := ParseTransactionType(name)
			require.NoError(t, err)
			assert.Equal(t, TransactionType(name), txType)
		}
	})

	t.Run("rejects anything else", func(t *testing.T) {
		for _, name := range []string{"", "transfer", "Deposit", "deposit "} {
			_, err := ParseTransactionType(name)
			assert.Error(t, err, "name %q", name)
		}
	})
}

func TestTransactionTypeHasAmount(t *testing.T) {
	assert.True(t, TypeDeposit.HasAmount())
	assert.True(t, TypeWithdrawal.HasAmount())
	assert.False(t, TypeDispute.HasAmount())
	assert.False(t, TypeResolve.HasAmount())
	assert.False(t, TypeChargeback.HasAmount())
}

func TestAccountTotal(t *testing.T) {
	acct := &Account{
		ClientID:  1,
		Available: decimal.RequireFromString("100"),
		Held:      decimal.RequireFromString("-10"),
	}

	assert.True(t, acct.Total().Equal(decimal.RequireFromString("90")))

	report := acct.Report()
	assert.Equal(t, ClientID(1), report.ClientID)
	assert.True(t, report.Total.Equal(decimal.RequireFromString("90")))
}

func TestDisputeStateString(t *testing.T) {
	assert.Equal(t, "normal", StateNormal.String())
	assert.Equal(t, "disputed", StateDisputed.String())
	assert.Equal(t, "resolved", StateResolved.String())
	assert.Equal(t, "charged_back", StateChargedBack.String())
}
