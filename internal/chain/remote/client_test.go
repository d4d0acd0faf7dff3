package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
)

func TestValidateAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/address/valid" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		valid := r.URL.Query().Get("address") == "cnGood"
		_ = json.NewEncoder(w).Encode(map[string]bool{"valid": valid})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ws://unused", "cnSigner", zerolog.Nop())
	client.Http = server.Client()

	if !client.ValidateAddress("cnGood") {
		t.Fatalf("expected cnGood to validate")
	}
	if client.ValidateAddress("bad") {
		t.Fatalf("expected bad to be rejected")
	}
}

func TestPriceOf(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("asset") == asset.XOR.Address {
			_ = json.NewEncoder(w).Encode(map[string]string{"price": "1000000000000000000"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"price": ""})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ws://unused", "cnSigner", zerolog.Nop())
	client.Http = server.Client()

	price, ok := client.PriceOf(asset.XOR.Address)
	if !ok {
		t.Fatalf("expected XOR price")
	}
	if !price.Equal(decimal.RequireFromString("1000000000000000000")) {
		t.Fatalf("unexpected price: %s", price)
	}

	if _, ok := client.PriceOf(asset.VAL.Address); ok {
		t.Fatalf("expected missing price for VAL")
	}
}

func TestQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/quote" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			ExactOut bool `json:"exact_out"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		if !req.ExactOut {
			t.Fatalf("expected exact-out quote")
		}
		_ = json.NewEncoder(w).Encode(chain.SwapResult{
			Amount:              decimal.RequireFromString("101.5"),
			Fee:                 decimal.RequireFromString("0.3"),
			AmountWithoutImpact: decimal.RequireFromString("101.2"),
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "ws://unused", "cnSigner", zerolog.Nop())
	client.Http = server.Client()

	result, err := client.Quote(asset.XOR, asset.VAL, decimal.NewFromInt(100), true, nil, nil, chain.QuotePayload{})
	if err != nil {
		t.Fatalf("Quote returned error: %v", err)
	}
	if !result.Amount.Equal(decimal.RequireFromString("101.5")) {
		t.Fatalf("unexpected amount: %s", result.Amount)
	}
}

func TestSubmitErrorsWrapSubmissionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "ws://unused", "cnSigner", zerolog.Nop())
	client.Http = server.Client()

	err := client.Transfer(context.Background(), asset.XOR, "cnDest", decimal.NewFromInt(1))
	if !errors.Is(err, chain.ErrSubmissionFailed) {
		t.Fatalf("expected ErrSubmissionFailed, got %v", err)
	}

	err = client.SubmitBatch(context.Background(), []chain.TransferCall{{Asset: asset.XOR, To: "cnDest", Amount: decimal.NewFromInt(1)}}, "cnSigner", chain.HistoryMeta{})
	if !errors.Is(err, chain.ErrSubmissionFailed) {
		t.Fatalf("expected batch ErrSubmissionFailed, got %v", err)
	}
}
