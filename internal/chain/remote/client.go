// Package remote implements the gateway client over the payment gateway's
// HTTP and websocket API. It proxies validation, pricing, quoting, and
// submission; transaction encoding and signing stay on the gateway side.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
)

// Client talks to one gateway deployment.
type Client struct {
	Base   string
	WSBase string
	Signer string
	Http   *http.Client
	log    zerolog.Logger
}

// NewClient builds a gateway client with an 8s request timeout.
func NewClient(base, wsBase, signer string, log zerolog.Logger) *Client {
	return &Client{
		Base:   trimSlash(base),
		WSBase: trimSlash(wsBase),
		Signer: signer,
		Http:   &http.Client{Timeout: 8 * time.Second},
		log:    log,
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// ValidateAddress is synchronous by contract; any transport error counts as
// invalid.
func (c *Client) ValidateAddress(address string) bool {
	q := url.Values{}
	q.Set("address", address)
	var out struct {
		Valid bool `json:"valid"`
	}
	if err := c.getJSON("/v1/address/valid?"+q.Encode(), &out); err != nil {
		c.log.Warn().Err(err).Str("address", address).Msg("address validation failed")
		return false
	}
	return out.Valid
}

// PriceOf fetches the 18-decimal codec price of an asset.
func (c *Client) PriceOf(assetAddress string) (decimal.Decimal, bool) {
	q := url.Values{}
	q.Set("asset", assetAddress)
	var out struct {
		Price string `json:"price"`
	}
	if err := c.getJSON("/v1/price?"+q.Encode(), &out); err != nil || out.Price == "" {
		return decimal.Zero, false
	}
	price, err := decimal.NewFromString(out.Price)
	if err != nil {
		c.log.Warn().Err(err).Str("asset", assetAddress).Msg("invalid price from gateway")
		return decimal.Zero, false
	}
	return price, true
}

// ResolvePathsAndSources asks the gateway to derive routes from a payload.
func (c *Client) ResolvePathsAndSources(inputAddr, outputAddr string, payload chain.QuotePayload, enabledAssets []string) (chain.Paths, []chain.LiquiditySource, error) {
	req := struct {
		Input         string             `json:"input"`
		Output        string             `json:"output"`
		Payload       chain.QuotePayload `json:"payload"`
		EnabledAssets []string           `json:"enabled_assets"`
	}{inputAddr, outputAddr, payload, enabledAssets}
	var out struct {
		Paths   chain.Paths             `json:"paths"`
		Sources []chain.LiquiditySource `json:"sources"`
	}
	if err := c.postJSON("/v1/paths", req, &out); err != nil {
		return nil, nil, fmt.Errorf("resolve paths: %w", err)
	}
	return out.Paths, out.Sources, nil
}

// Quote prices one conversion against the supplied payload.
func (c *Client) Quote(input, output asset.Asset, amount decimal.Decimal, exactOut bool, sources []chain.LiquiditySource, paths chain.Paths, payload chain.QuotePayload) (chain.SwapResult, error) {
	req := struct {
		Input    asset.Asset             `json:"input"`
		Output   asset.Asset             `json:"output"`
		Amount   decimal.Decimal         `json:"amount"`
		ExactOut bool                    `json:"exact_out"`
		Sources  []chain.LiquiditySource `json:"sources"`
		Paths    chain.Paths             `json:"paths"`
		Payload  chain.QuotePayload      `json:"payload"`
	}{input, output, amount, exactOut, sources, paths, payload}
	var out chain.SwapResult
	if err := c.postJSON("/v1/quote", req, &out); err != nil {
		return chain.SwapResult{}, fmt.Errorf("quote %s/%s: %w", input.Symbol, output.Symbol, err)
	}
	return out, nil
}

// Transfer submits one transfer transaction through the gateway.
func (c *Client) Transfer(ctx context.Context, a asset.Asset, to string, amount decimal.Decimal) error {
	req := struct {
		Asset  asset.Asset     `json:"asset"`
		To     string          `json:"to"`
		Amount decimal.Decimal `json:"amount"`
		Signer string          `json:"signer"`
	}{a, to, amount, c.Signer}
	if err := c.submit(ctx, "/v1/transfer", req); err != nil {
		return fmt.Errorf("transfer %s to %s: %w", a.Symbol, to, err)
	}
	return nil
}

// SwapAndSend submits one swap-and-send transaction through the gateway.
func (c *Client) SwapAndSend(ctx context.Context, to string, input, output asset.Asset, amount, amountEquivalent decimal.Decimal, slippageBps int, desired bool) error {
	req := struct {
		To               string          `json:"to"`
		Input            asset.Asset     `json:"input"`
		Output           asset.Asset     `json:"output"`
		Amount           decimal.Decimal `json:"amount"`
		AmountEquivalent decimal.Decimal `json:"amount_equivalent"`
		SlippageBps      int             `json:"slippage_bps,omitempty"`
		Desired          bool            `json:"desired"`
		Signer           string          `json:"signer"`
	}{to, input, output, amount, amountEquivalent, slippageBps, desired, c.Signer}
	if err := c.submit(ctx, "/v1/swap", req); err != nil {
		return fmt.Errorf("swap and send %s->%s: %w", input.Symbol, output.Symbol, err)
	}
	return nil
}

// SubmitBatch submits all calls as one atomic multi-call.
func (c *Client) SubmitBatch(ctx context.Context, calls []chain.TransferCall, signer string, meta chain.HistoryMeta) error {
	req := struct {
		Calls   []chain.TransferCall `json:"calls"`
		Signer  string               `json:"signer"`
		History chain.HistoryMeta    `json:"history"`
	}{calls, signer, meta}
	if err := c.submit(ctx, "/v1/batch", req); err != nil {
		return fmt.Errorf("batch of %d transfers: %w", len(calls), err)
	}
	return nil
}

func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.Base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.Http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.Base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// submit posts a transaction request; non-200 responses surface as
// chain.ErrSubmissionFailed.
func (c *Client) submit(ctx context.Context, path string, in any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Base+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.Http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", chain.ErrSubmissionFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: gateway status %d", chain.ErrSubmissionFailed, resp.StatusCode)
	}
	return nil
}
