// Package recipient models the payout batch: one recipient per imported row,
// a small status lifecycle, and the ordered store the router works against.
package recipient

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
)

// ErrNotFound marks edits or retries referencing a stale recipient id.
var ErrNotFound = errors.New("recipient not found")

// Status is the lifecycle state of one recipient.
type Status string

const (
	StatusAddressInvalid Status = "Address invalid"
	StatusAddressValid   Status = "Address valid"
	StatusPending        Status = "Pending"
	StatusSuccess        Status = "Success"
	StatusFailed         Status = "Failed"
)

// Terminal reports whether the status ends the lifecycle. Failed recipients
// may still be retried explicitly.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Recipient is one row of the payout batch.
type Recipient struct {
	ID        string
	Name      string
	Wallet    string
	USD       decimal.Decimal
	Asset     asset.Asset
	Amount    decimal.Decimal // cached; re-derived from USD and the current price
	Status    Status
	Completed bool
}
