// Package quote holds the pure pricing math of the router: USD-to-token
// conversion and swap-plan construction against live reserve payloads.
package quote

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
)

// ErrPriceUnavailable marks an asset with no usable current price. Amount
// recompute for the affected recipient cannot proceed.
var ErrPriceUnavailable = errors.New("price unavailable")

// PriceView exposes the codec-scaled USD price of an asset. chain.Client
// satisfies it.
type PriceView interface {
	PriceOf(assetAddress string) (decimal.Decimal, bool)
}

// usdPrice converts the 18-decimal codec price into display units rounded to
// two decimal places, the precision the ledger UI quotes fiat at.
func usdPrice(a asset.Asset, prices PriceView) (decimal.Decimal, error) {
	codec, ok := prices.PriceOf(a.Address)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", a.Symbol, ErrPriceUnavailable)
	}
	price := codec.Shift(-chain.PriceDecimals).Round(2)
	if price.IsZero() {
		return decimal.Zero, fmt.Errorf("%s: %w", a.Symbol, ErrPriceUnavailable)
	}
	return price, nil
}

// TokenAmount converts a USD amount into units of the asset using the
// two-decimal display price. Missing or zero prices yield
// ErrPriceUnavailable, never NaN or Inf.
func TokenAmount(usd decimal.Decimal, a asset.Asset, prices PriceView) (decimal.Decimal, error) {
	price, err := usdPrice(a, prices)
	if err != nil {
		return decimal.Zero, err
	}
	return usd.Div(price), nil
}

// TokenEquivalent converts a USD amount using the full-precision codec price.
// Swap quoting uses this finer figure as the desired output amount.
func TokenEquivalent(usd decimal.Decimal, a asset.Asset, prices PriceView) (decimal.Decimal, error) {
	codec, ok := prices.PriceOf(a.Address)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s: %w", a.Symbol, ErrPriceUnavailable)
	}
	price := codec.Shift(-chain.PriceDecimals)
	if price.IsZero() {
		return decimal.Zero, fmt.Errorf("%s: %w", a.Symbol, ErrPriceUnavailable)
	}
	return usd.Div(price), nil
}

// Plan describes one priced conversion ready for execution.
type Plan struct {
	AmountIn            decimal.Decimal
	Fee                 decimal.Decimal
	Rewards             []string
	AmountWithoutImpact decimal.Decimal
}

// Quoter is the slice of the chain client the engine needs.
type Quoter interface {
	Quote(input, output asset.Asset, amount decimal.Decimal, exactOut bool, sources []chain.LiquiditySource, paths chain.Paths, payload chain.QuotePayload) (chain.SwapResult, error)
}

// BuildPlan prices a conversion of input into tokenEquivalent units of
// output, using the paths and payload from the latest subscription tick.
// Quotes are exact-out: the caller fixes the output amount.
func BuildPlan(q Quoter, input, output asset.Asset, tokenEquivalent decimal.Decimal, sources []chain.LiquiditySource, paths chain.Paths, payload chain.QuotePayload) (Plan, error) {
	result, err := q.Quote(input, output, tokenEquivalent, true, sources, paths, payload)
	if err != nil {
		return Plan{}, fmt.Errorf("quote %s->%s: %w", input.Symbol, output.Symbol, err)
	}
	return Plan{
		AmountIn:            result.Amount,
		Fee:                 result.Fee,
		Rewards:             result.Rewards,
		AmountWithoutImpact: result.AmountWithoutImpact,
	}, nil
}
