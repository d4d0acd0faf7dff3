// Package chain defines the capability surface the router needs from the
// underlying ledger gateway. Implementations live in subpackages; the router
// itself never encodes or signs chain transactions.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
)

// ErrSubmissionFailed marks chain-side rejection of a transfer, swap, or batch.
var ErrSubmissionFailed = errors.New("submission failed")

// PriceDecimals is the fixed-point scale of ledger price quotations.
const PriceDecimals = 18

// LiquiditySource names one pool type a quote may route through.
type LiquiditySource string

const (
	SourceXYKPool LiquiditySource = "XYKPool"
	SourceTBC     LiquiditySource = "MulticollateralBondingCurvePool"
)

// ParseSources converts configured source names into typed values.
func ParseSources(names []string) []LiquiditySource {
	out := make([]LiquiditySource, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		out = append(out, LiquiditySource(n))
	}
	return out
}

// QuotePayload carries the raw reserve state delivered by one feed tick for a
// single input/output pair. The router treats the reserve body as opaque and
// hands it back on path resolution and quoting.
type QuotePayload struct {
	Reserves  json.RawMessage `json:"reserves"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Paths enumerates candidate swap routes; each route is a sequence of asset
// addresses from input to output.
type Paths [][]string

// SwapResult is the outcome of quoting one conversion.
type SwapResult struct {
	Amount              decimal.Decimal `json:"amount"`
	Fee                 decimal.Decimal `json:"fee"`
	Rewards             []string        `json:"rewards"`
	AmountWithoutImpact decimal.Decimal `json:"amount_without_impact"`
}

// Operation tags history records by submission kind.
type Operation string

const (
	OpTransfer    Operation = "Transfer"
	OpSwapAndSend Operation = "SwapAndSend"
)

// TransferCall describes one transfer inside an atomic batch submission.
type TransferCall struct {
	Asset  asset.Asset     `json:"asset"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// HistoryMeta is the audit record attached to a submission.
type HistoryMeta struct {
	Symbol       string    `json:"symbol"`
	From         string    `json:"from,omitempty"`
	To           string    `json:"to,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	AssetAddress string    `json:"asset_address"`
	Type         Operation `json:"type"`
}

// ReserveFeed is one live reserve subscription. The owner must call Cancel
// exactly once on teardown; Updates is closed after cancellation.
type ReserveFeed interface {
	Updates() <-chan QuotePayload
	Cancel()
}

// Client is the full ledger gateway surface the router depends on.
type Client interface {
	// ValidateAddress reports whether an address is well formed for the
	// target ledger. Synchronous by contract.
	ValidateAddress(address string) bool

	// PriceOf returns the USD price of an asset as an 18-decimal codec
	// value. ok is false when no price is known.
	PriceOf(assetAddress string) (decimal.Decimal, bool)

	// SubscribeReserves opens a live reserve feed for one asset pair.
	SubscribeReserves(ctx context.Context, inputAddr, outputAddr string, sources []LiquiditySource) (ReserveFeed, error)

	// ResolvePathsAndSources derives swap routes and eligible liquidity
	// sources from the latest payload.
	ResolvePathsAndSources(inputAddr, outputAddr string, payload QuotePayload, enabledAssets []string) (Paths, []LiquiditySource, error)

	// Quote prices one conversion against the supplied payload. exactOut
	// quotes the input amount needed to produce the requested output.
	Quote(input, output asset.Asset, amount decimal.Decimal, exactOut bool, sources []LiquiditySource, paths Paths, payload QuotePayload) (SwapResult, error)

	// Transfer submits a single transfer transaction.
	Transfer(ctx context.Context, a asset.Asset, to string, amount decimal.Decimal) error

	// SwapAndSend converts input into output and delivers it atomically.
	SwapAndSend(ctx context.Context, to string, input, output asset.Asset, amount, amountEquivalent decimal.Decimal, slippageBps int, desired bool) error

	// SubmitBatch submits all calls as one atomic multi-call.
	SubmitBatch(ctx context.Context, calls []TransferCall, signer string, meta HistoryMeta) error
}
