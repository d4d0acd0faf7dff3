// Package reserves maintains the live liquidity subscriptions backing swap
// quotes: exactly one feed per distinct payout asset among current
// recipients, excluding the chosen input asset.
package reserves

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/metrics"
	"github.com/igorvidic21/adar/internal/quote"
	"github.com/igorvidic21/adar/internal/recipient"
)

// subscription owns one reserve feed and the data from its latest tick.
// The payload/paths/sources fields are replaced whole on each update; the
// feed handle is canceled exactly once on teardown.
type subscription struct {
	feed         chain.ReserveFeed
	assetAddress string
	payload      *chain.QuotePayload
	paths        chain.Paths
	sources      []chain.LiquiditySource
}

// View is a routing-time snapshot of one subscription.
type View struct {
	AssetAddress string
	Payload      *chain.QuotePayload
	Paths        chain.Paths
	Sources      []chain.LiquiditySource
}

// Ready reports whether at least one tick has arrived.
func (v View) Ready() bool { return v.Payload != nil }

// Manager owns the subscription set.
type Manager struct {
	log     zerolog.Logger
	client  chain.Client
	store   *recipient.Store
	sources []chain.LiquiditySource
	enabled []string

	mu     sync.Mutex
	subs   map[string]*subscription
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager wires the subscription manager against a store and client.
func NewManager(client chain.Client, store *recipient.Store, sources []chain.LiquiditySource, enabledAssets []string, log zerolog.Logger) *Manager {
	return &Manager{
		log:     log,
		client:  client,
		store:   store,
		sources: sources,
		enabled: enabledAssets,
		subs:    make(map[string]*subscription),
	}
}

// Start opens one reserve feed per distinct payout asset currently in the
// store, excluding the input asset. Any previous subscription set is torn
// down first, so restarting with a different input asset is safe.
func (m *Manager) Start(ctx context.Context, input asset.Asset) error {
	m.Stop()

	ctx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	for _, addr := range m.store.PayoutAssets(input.Address) {
		feed, err := m.client.SubscribeReserves(ctx, input.Address, addr, m.sources)
		if err != nil {
			m.Stop()
			return fmt.Errorf("subscribe reserves for %s: %w", addr, err)
		}
		sub := &subscription{feed: feed, assetAddress: addr}
		m.mu.Lock()
		m.subs[addr] = sub
		m.mu.Unlock()

		m.wg.Add(1)
		go m.consume(ctx, input.Address, sub)
		m.log.Debug().Str("asset", addr).Msg("reserve subscription opened")
	}
	return nil
}

// Stop cancels every open feed exactly once and clears the subscription set.
// Calling it with zero subscriptions is a no-op.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	subs := m.subs
	m.subs = make(map[string]*subscription)
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, sub := range subs {
		sub.feed.Cancel()
	}
	m.wg.Wait()
}

// Lookup returns the latest snapshot for one payout asset.
func (m *Manager) Lookup(assetAddr string) (View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[assetAddr]
	if !ok {
		return View{}, false
	}
	return View{
		AssetAddress: sub.assetAddress,
		Payload:      sub.payload,
		Paths:        sub.paths,
		Sources:      sub.sources,
	}, true
}

// Active returns the subscribed payout-asset addresses.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.subs))
	for addr := range m.subs {
		out = append(out, addr)
	}
	return out
}

// Ready reports whether every open subscription has received at least one
// tick. An empty subscription set is ready by definition.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subs {
		if sub.payload == nil {
			return false
		}
	}
	return true
}

func (m *Manager) consume(ctx context.Context, inputAddr string, sub *subscription) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub.feed.Updates():
			if !ok {
				return
			}
			m.onUpdate(inputAddr, sub.assetAddress, payload)
		}
	}
}

// onUpdate resolves routes from the fresh payload, stores the snapshot under
// the subscription key, and recomputes amounts for recipients holding that
// payout asset.
func (m *Manager) onUpdate(inputAddr, outputAddr string, payload chain.QuotePayload) {
	paths, sources, err := m.client.ResolvePathsAndSources(inputAddr, outputAddr, payload, m.enabled)
	if err != nil {
		m.log.Warn().Err(err).Str("asset", outputAddr).Msg("path resolution failed")
		return
	}

	m.mu.Lock()
	if sub, ok := m.subs[outputAddr]; ok {
		sub.payload = &payload
		sub.paths = paths
		sub.sources = sources
	}
	m.mu.Unlock()

	metrics.ReserveUpdates.WithLabelValues(outputAddr).Inc()
	m.recomputeAmounts(outputAddr)
}

func (m *Manager) recomputeAmounts(assetAddr string) {
	for _, rec := range m.store.ByAsset(assetAddr) {
		amount, err := quote.TokenAmount(rec.USD, rec.Asset, m.client)
		if err != nil {
			m.log.Warn().Err(err).Str("recipient", rec.ID).Msg("amount recompute skipped")
			continue
		}
		if err := m.store.SetAmount(rec.ID, amount); err != nil {
			m.log.Warn().Err(err).Str("recipient", rec.ID).Msg("amount update failed")
		}
	}
}
