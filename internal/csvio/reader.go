// Package csvio reads transaction records from CSV and writes account
// reports back out. The wire structs are kept apart from the domain model so
// the two can evolve independently.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"payments-engine/internal/domain"
)

// RecordError marks a single malformed input row. Callers can skip these and
// keep reading; any other error from Next is an I/O failure and terminal.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record on line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Reader decodes transaction records from CSV input with the header
// type,client,tx,amount. The amount column may be empty or absent for
// dispute, resolve and chargeback rows.
type Reader struct {
	csv        *csv.Reader
	headerDone bool
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	// Rows legitimately vary between 3 and 4 fields.
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{csv: cr}
}

// Next returns the next well-formed transaction. It returns io.EOF once the
// input is exhausted and *RecordError for rows that cannot be decoded.
func (r *Reader) Next() (domain.Transaction, error) {
	if !r.headerDone {
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return domain.Transaction{}, io.EOF
			}
			return domain.Transaction{}, fmt.Errorf("reading header: %w", err)
		}
		r.headerDone = true
	}

	row, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return domain.Transaction{}, io.EOF
		}
		if parseErr, ok := err.(*csv.ParseError); ok {
			return domain.Transaction{}, &RecordError{Line: parseErr.Line, Err: parseErr.Err}
		}
		return domain.Transaction{}, err
	}

	line, _ := r.csv.FieldPos(0)
	tx, err := decodeRow(row)
	if err != nil {
		return domain.Transaction{}, &RecordError{Line: line, Err: err}
	}
	return tx, nil
}

func decodeRow(row []string) (domain.Transaction, error) {
	if len(row) < 3 || len(row) > 4 {
		return domain.Transaction{}, fmt.Errorf("expected 3 or 4 fields, got %d", len(row))
	}

	txType, err := domain.ParseTransactionType(strings.TrimSpace(row[0]))
	if err != nil {
		return domain.Transaction{}, err
	}

	clientID, err := strconv.ParseUint(strings.TrimSpace(row[1]), 10, 16)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid client id %q", row[1])
	}

	txID, err := strconv.ParseUint(strings.TrimSpace(row[2]), 10, 32)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("invalid transaction id %q", row[2])
	}

	tx := domain.Transaction{
		Type:          txType,
		ClientID:      domain.ClientID(clientID),
		TransactionID: domain.TransactionID(txID),
	}

	if txType.HasAmount() {
		if len(row) < 4 || strings.TrimSpace(row[3]) == "" {
			return domain.Transaction{}, fmt.Errorf("%s requires an amount", txType)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(row[3]))
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("invalid amount %q", row[3])
		}
		tx.Amount = amount
	}

	return tx, nil
}
