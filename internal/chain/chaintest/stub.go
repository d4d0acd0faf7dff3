// Package chaintest provides a scripted in-memory gateway client for tests
// and offline dry runs. Behaviour is configured per address: prices, invalid
// destinations, wallets whose submissions fail, and a forced batch error.
package chaintest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
)

// SwapRecord captures one SwapAndSend submission.
type SwapRecord struct {
	To               string
	Input            asset.Asset
	Output           asset.Asset
	Amount           decimal.Decimal
	AmountEquivalent decimal.Decimal
}

// TransferRecord captures one single-transfer submission.
type TransferRecord struct {
	Asset  asset.Asset
	To     string
	Amount decimal.Decimal
}

// Client implements chain.Client with scripted behaviour.
type Client struct {
	mu          sync.Mutex
	prices      map[string]decimal.Decimal // codec-scaled, keyed by asset address
	invalid     map[string]struct{}
	failWallets map[string]struct{}
	batchErr    error

	feeds map[string]*Feed // keyed by output asset address

	Transfers []TransferRecord
	Swaps     []SwapRecord
	Batches   [][]chain.TransferCall
}

// NewClient returns an empty scripted client. Every address validates until
// marked invalid; assets have no price until one is set.
func NewClient() *Client {
	return &Client{
		prices:      make(map[string]decimal.Decimal),
		invalid:     make(map[string]struct{}),
		failWallets: make(map[string]struct{}),
		feeds:       make(map[string]*Feed),
	}
}

// SetPrice scripts the USD price of an asset, given in plain units
// (e.g. "1.25"); it is stored codec-scaled like the real gateway reports it.
func (c *Client) SetPrice(assetAddr, usd string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prices[assetAddr] = decimal.RequireFromString(usd).Shift(chain.PriceDecimals)
}

// DropPrice removes a scripted price.
func (c *Client) DropPrice(assetAddr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.prices, assetAddr)
}

// MarkInvalid makes ValidateAddress reject the given address.
func (c *Client) MarkInvalid(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalid[address] = struct{}{}
}

// FailWallet makes Transfer and SwapAndSend to this destination fail.
func (c *Client) FailWallet(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failWallets[address] = struct{}{}
}

// FailBatch forces the next SubmitBatch calls to fail with err.
func (c *Client) FailBatch(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batchErr = err
}

func (c *Client) ValidateAddress(address string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if address == "" {
		return false
	}
	_, bad := c.invalid[address]
	return !bad
}

func (c *Client) PriceOf(assetAddress string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.prices[assetAddress]
	return p, ok
}

func (c *Client) SubscribeReserves(ctx context.Context, inputAddr, outputAddr string, sources []chain.LiquiditySource) (chain.ReserveFeed, error) {
	feed := &Feed{updates: make(chan chain.QuotePayload, 16)}
	c.mu.Lock()
	c.feeds[outputAddr] = feed
	c.mu.Unlock()
	return feed, nil
}

// PushReserves emits one payload on the feed registered for outputAddr.
// It reports whether a live feed existed.
func (c *Client) PushReserves(outputAddr string) bool {
	c.mu.Lock()
	feed, ok := c.feeds[outputAddr]
	c.mu.Unlock()
	if !ok || feed.Canceled() {
		return false
	}
	payload := chain.QuotePayload{
		Reserves:  json.RawMessage(fmt.Sprintf(`{"output":%q}`, outputAddr)),
		UpdatedAt: time.Now(),
	}
	feed.updates <- payload
	return true
}

// OpenFeeds counts feeds that have not been canceled yet.
func (c *Client) OpenFeeds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	open := 0
	for _, f := range c.feeds {
		if !f.Canceled() {
			open++
		}
	}
	return open
}

func (c *Client) ResolvePathsAndSources(inputAddr, outputAddr string, payload chain.QuotePayload, enabledAssets []string) (chain.Paths, []chain.LiquiditySource, error) {
	return chain.Paths{{inputAddr, outputAddr}}, []chain.LiquiditySource{chain.SourceXYKPool}, nil
}

// Quote prices a conversion off the scripted USD prices with a flat 0.3% fee.
func (c *Client) Quote(input, output asset.Asset, amount decimal.Decimal, exactOut bool, sources []chain.LiquiditySource, paths chain.Paths, payload chain.QuotePayload) (chain.SwapResult, error) {
	c.mu.Lock()
	inPrice, inOK := c.prices[input.Address]
	outPrice, outOK := c.prices[output.Address]
	c.mu.Unlock()
	if !inOK || !outOK || inPrice.IsZero() {
		return chain.SwapResult{}, fmt.Errorf("no price for quote %s/%s", input.Symbol, output.Symbol)
	}

	// exact-out: amount of input needed to produce `amount` of output
	quoted := amount.Mul(outPrice).Div(inPrice)
	if !exactOut {
		quoted = amount.Mul(inPrice).Div(outPrice)
	}
	fee := quoted.Mul(decimal.NewFromFloat(0.003))
	return chain.SwapResult{
		Amount:              quoted.Add(fee),
		Fee:                 fee,
		AmountWithoutImpact: quoted,
	}, nil
}

func (c *Client) Transfer(ctx context.Context, a asset.Asset, to string, amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, bad := c.failWallets[to]; bad {
		return fmt.Errorf("transfer to %s: %w", to, chain.ErrSubmissionFailed)
	}
	c.Transfers = append(c.Transfers, TransferRecord{Asset: a, To: to, Amount: amount})
	return nil
}

func (c *Client) SwapAndSend(ctx context.Context, to string, input, output asset.Asset, amount, amountEquivalent decimal.Decimal, slippageBps int, desired bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, bad := c.failWallets[to]; bad {
		return fmt.Errorf("swap and send to %s: %w", to, chain.ErrSubmissionFailed)
	}
	c.Swaps = append(c.Swaps, SwapRecord{To: to, Input: input, Output: output, Amount: amount, AmountEquivalent: amountEquivalent})
	return nil
}

func (c *Client) SubmitBatch(ctx context.Context, calls []chain.TransferCall, signer string, meta chain.HistoryMeta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batchErr != nil {
		return fmt.Errorf("submit batch: %w", c.batchErr)
	}
	copied := make([]chain.TransferCall, len(calls))
	copy(copied, calls)
	c.Batches = append(c.Batches, copied)
	return nil
}

// Feed is a pushable reserve subscription handle.
type Feed struct {
	updates chan chain.QuotePayload
	mu      sync.Mutex
	done    bool
}

func (f *Feed) Updates() <-chan chain.QuotePayload { return f.updates }

// Cancel closes the update stream. Safe to call more than once.
func (f *Feed) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done {
		return
	}
	f.done = true
	close(f.updates)
}

// Canceled reports whether the feed has been torn down.
func (f *Feed) Canceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}
