package reserves

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/chain/chaintest"
	"github.com/igorvidic21/adar/internal/recipient"
)

const sampleCSV = `Alice,cnAlice111111111,100,XOR
Bob,cnBob22222222222,50,VAL
Carol,cnCarol333333333,20,PSWAP
Dan,cnDan44444444444,10,VAL
`

func setup(t *testing.T) (*chaintest.Client, *recipient.Store, *Manager) {
	t.Helper()
	client := chaintest.NewClient()
	client.SetPrice(asset.XOR.Address, "1")
	client.SetPrice(asset.VAL.Address, "0.5")
	client.SetPrice(asset.PSWAP.Address, "0.02")

	store := recipient.NewStore()
	builder := recipient.Builder{
		Assets:   asset.NewDefaultRegistry(),
		Validate: client.ValidateAddress,
		Prices:   client,
	}
	if _, err := recipient.Load(strings.NewReader(sampleCSV), "sample.csv", builder, store); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	manager := NewManager(client, store, []chain.LiquiditySource{chain.SourceXYKPool}, nil, zerolog.Nop())
	return client, store, manager
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStartOpensOneFeedPerPayoutAsset(t *testing.T) {
	client, _, manager := setup(t)
	defer manager.Stop()

	if err := manager.Start(context.Background(), asset.XOR); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	if got := client.OpenFeeds(); got != 2 {
		t.Fatalf("expected 2 feeds (VAL, PSWAP), got %d", got)
	}
	active := manager.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active subscriptions, got %v", active)
	}
	for _, addr := range active {
		if addr == asset.XOR.Address {
			t.Fatalf("input asset must not be subscribed")
		}
	}
}

func TestTickRefreshesSnapshotAndAmounts(t *testing.T) {
	client, store, manager := setup(t)
	defer manager.Stop()

	// price moves after import; amounts must follow the tick
	if err := manager.Start(context.Background(), asset.XOR); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	client.SetPrice(asset.VAL.Address, "0.25")

	if !client.PushReserves(asset.VAL.Address) {
		t.Fatalf("expected live VAL feed")
	}

	waitFor(t, "VAL snapshot", func() bool {
		view, ok := manager.Lookup(asset.VAL.Address)
		return ok && view.Ready()
	})
	view, _ := manager.Lookup(asset.VAL.Address)
	if len(view.Paths) == 0 || len(view.Sources) == 0 {
		t.Fatalf("expected resolved paths and sources, got %+v", view)
	}

	waitFor(t, "recomputed amounts", func() bool {
		for _, rec := range store.ByAsset(asset.VAL.Address) {
			if !rec.Amount.Equal(rec.USD.Div(decimal.RequireFromString("0.25"))) {
				return false
			}
		}
		return true
	})

	// PSWAP untouched by a VAL tick
	if view, _ := manager.Lookup(asset.PSWAP.Address); view.Ready() {
		t.Fatalf("PSWAP snapshot should still be empty")
	}
}

func TestStopReleasesEveryFeedAndIsIdempotent(t *testing.T) {
	client, _, manager := setup(t)

	if err := manager.Start(context.Background(), asset.XOR); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	manager.Stop()
	if got := client.OpenFeeds(); got != 0 {
		t.Fatalf("expected zero open feeds after stop, got %d", got)
	}
	if len(manager.Active()) != 0 {
		t.Fatalf("expected empty subscription set after stop")
	}

	// second stop must be a no-op, not a duplicate release fault
	manager.Stop()
}

func TestRestartWithDifferentInputAsset(t *testing.T) {
	client, _, manager := setup(t)
	defer manager.Stop()

	if err := manager.Start(context.Background(), asset.XOR); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	if err := manager.Start(context.Background(), asset.VAL); err != nil {
		t.Fatalf("restart returned error: %v", err)
	}

	active := manager.Active()
	if len(active) != 2 {
		t.Fatalf("expected XOR and PSWAP subscriptions, got %v", active)
	}
	for _, addr := range active {
		if addr == asset.VAL.Address {
			t.Fatalf("new input asset must be excluded")
		}
	}
	if got := client.OpenFeeds(); got != 2 {
		t.Fatalf("expected old feeds released on restart, got %d open", got)
	}
}

func TestReadyWithNoSubscriptions(t *testing.T) {
	_, _, manager := setup(t)
	if !manager.Ready() {
		t.Fatalf("empty subscription set must be ready")
	}
}
