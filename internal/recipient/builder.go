package recipient

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/importer"
	"github.com/igorvidic21/adar/internal/metrics"
	"github.com/igorvidic21/adar/internal/quote"
)

// Builder turns raw rows into recipients.
type Builder struct {
	Assets   *asset.Registry
	Validate func(address string) bool
	Prices   quote.PriceView
}

// FromRow maps one raw row [name, wallet, usd, symbol] onto a recipient.
// Unresolved symbols fall back to the registry default; resolved reports
// whether the symbol matched. A recipient whose asset has no price yet keeps
// a zero amount until the first subscription tick fills it in.
func (b Builder) FromRow(row importer.Row) (rec Recipient, resolved bool, err error) {
	if len(row.Fields) < 3 {
		return Recipient{}, false, fmt.Errorf("row %d: expected at least 3 fields, got %d", row.Line, len(row.Fields))
	}

	usdRaw := strings.ReplaceAll(strings.TrimSpace(row.Fields[2]), ",", "")
	usd, err := decimal.NewFromString(usdRaw)
	if err != nil {
		return Recipient{}, false, fmt.Errorf("row %d: bad usd amount %q: %w", row.Line, row.Fields[2], err)
	}

	symbol := ""
	if len(row.Fields) > 3 {
		symbol = row.Fields[3]
	}
	a, resolved := b.Assets.LookupOrDefault(symbol)

	wallet := strings.TrimSpace(row.Fields[1])
	status := StatusAddressInvalid
	if b.Validate(wallet) {
		status = StatusAddressValid
	}

	amount := decimal.Zero
	if computed, err := quote.TokenAmount(usd, a, b.Prices); err == nil {
		amount = computed
	} else if !errors.Is(err, quote.ErrPriceUnavailable) {
		return Recipient{}, resolved, err
	}

	return Recipient{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(row.Fields[0]),
		Wallet: wallet,
		USD:    usd,
		Asset:  a,
		Amount: amount,
		Status: status,
	}, resolved, nil
}

// LoadResult summarizes one import pass.
type LoadResult struct {
	Loaded    int
	Skipped   []int // line numbers of rows that could not be parsed
	Fallbacks []int // line numbers whose asset symbol fell back to the default
}

// Load replaces the store contents from a delimited byte source. Malformed
// rows are skipped and reported, never fatal.
func Load(r io.Reader, name string, b Builder, store *Store) (LoadResult, error) {
	var result LoadResult
	var recs []Recipient

	skipped, err := importer.Stream(r, func(row importer.Row) error {
		rec, resolved, err := b.FromRow(row)
		if err != nil {
			result.Skipped = append(result.Skipped, row.Line)
			return nil
		}
		if !resolved {
			result.Fallbacks = append(result.Fallbacks, row.Line)
		}
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("stream rows: %w", err)
	}

	result.Skipped = append(result.Skipped, skipped...)
	result.Loaded = len(recs)
	store.Replace(recs, name)
	metrics.RecipientsLoaded.Add(float64(len(recs)))
	return result, nil
}
