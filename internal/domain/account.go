package domain

import (
	"github.com/shopspring/decimal"
)

// ClientID identifies a client account.
type ClientID uint16

// Account holds the balances for a single client. It is created implicitly by
// the first successful transaction referencing the client and is never deleted.
//
// Held can legitimately go negative: disputing a withdrawal records the
// disputed funds as a negative hold, which keeps Total unchanged while the
// dispute is open.
type Account struct {
	ClientID  ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// NewAccount returns an unlocked account with zero balances.
func NewAccount(clientID ClientID) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total is the client's full balance, available plus held.
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// Report returns a copy of the account state for snapshots.
func (a *Account) Report() AccountReport {
	return AccountReport{
		ClientID:  a.ClientID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// AccountReport is the exported state of one account at snapshot time.
type AccountReport struct {
	ClientID  ClientID        `json:"client_id"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
}
