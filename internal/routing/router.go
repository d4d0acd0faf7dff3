// Package routing classifies incomplete recipients into direct transfers and
// swap-and-send actions, and executes the two populations as separate
// batches.
package routing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/quote"
	"github.com/igorvidic21/adar/internal/recipient"
	"github.com/igorvidic21/adar/internal/reserves"
	"github.com/igorvidic21/adar/internal/util"
)

// ErrRouteUnavailable marks a payout asset with no live subscription data
// yet. The recipient stays unrouted for this pass and is picked up by the
// next explicit run.
var ErrRouteUnavailable = errors.New("route unavailable")

// Action submits the chain call for one recipient.
type Action func(ctx context.Context) error

// TransferItem is a direct-transfer descriptor paired with its recipient.
type TransferItem struct {
	RecipientID string
	Call        chain.TransferCall
	History     chain.HistoryMeta
	Action      Action
}

// SwapItem is a priced swap action paired with its recipient.
type SwapItem struct {
	RecipientID string
	Plan        quote.Plan
	Action      Action
}

// UnroutedItem reports a recipient that could not be routed this pass.
type UnroutedItem struct {
	RecipientID string
	Err         error
}

// Plan partitions one classification pass: every incomplete recipient lands
// in exactly one of the three lists.
type Plan struct {
	Transfers []TransferItem
	Swaps     []SwapItem
	Unrouted  []UnroutedItem
}

// Subscriptions is the slice of the reserve manager the router reads.
type Subscriptions interface {
	Lookup(assetAddr string) (reserves.View, bool)
}

// Router builds execution plans from the current store contents.
type Router struct {
	log         zerolog.Logger
	client      chain.Client
	store       *recipient.Store
	subs        Subscriptions
	slippageBps int
}

// NewRouter wires a classifier against the store and subscription set.
func NewRouter(client chain.Client, store *recipient.Store, subs Subscriptions, slippageBps int, log zerolog.Logger) *Router {
	return &Router{log: log, client: client, store: store, subs: subs, slippageBps: slippageBps}
}

// BuildPlan classifies every incomplete recipient. Each one transitions to
// Pending before routing; recipients that cannot be routed yet are reverted
// to AddressValid and reported in Unrouted. Recipients with invalid
// addresses never enter the plan.
func (r *Router) BuildPlan(input asset.Asset) Plan {
	var plan Plan
	for _, rec := range r.store.Incomplete() {
		if rec.Status == recipient.StatusAddressInvalid {
			continue
		}
		_ = r.store.SetStatus(rec.ID, recipient.StatusPending)

		if rec.Asset.Address == input.Address {
			item, err := r.transferItem(rec)
			if err != nil {
				plan.Unrouted = append(plan.Unrouted, r.unroute(rec, err))
				continue
			}
			plan.Transfers = append(plan.Transfers, item)
			continue
		}

		item, err := r.swapItem(input, rec)
		if err != nil {
			plan.Unrouted = append(plan.Unrouted, r.unroute(rec, err))
			continue
		}
		plan.Swaps = append(plan.Swaps, item)
	}
	return plan
}

func (r *Router) unroute(rec recipient.Recipient, err error) UnroutedItem {
	r.log.Warn().Err(err).Str("recipient", rec.ID).Str("asset", rec.Asset.Symbol).Msg("recipient unrouted this pass")
	_ = r.store.SetStatus(rec.ID, recipient.StatusAddressValid)
	return UnroutedItem{RecipientID: rec.ID, Err: err}
}

// transferItem builds the direct-transfer descriptor. The token amount is
// recomputed fresh from the current price; the history record keeps
// cn-prefixed destinations verbatim and shortens everything else.
func (r *Router) transferItem(rec recipient.Recipient) (TransferItem, error) {
	amount, err := quote.TokenAmount(rec.USD, rec.Asset, r.client)
	if err != nil {
		return TransferItem{}, err
	}

	display := rec.Wallet
	if !strings.HasPrefix(rec.Wallet, "cn") {
		display = util.ShortenAddress(rec.Wallet)
	}

	a, to := rec.Asset, rec.Wallet
	return TransferItem{
		RecipientID: rec.ID,
		Call:        chain.TransferCall{Asset: a, To: to, Amount: amount},
		History: chain.HistoryMeta{
			Symbol:       a.Symbol,
			To:           display,
			Amount:       amount.String(),
			AssetAddress: a.Address,
			Type:         chain.OpTransfer,
		},
		Action: func(ctx context.Context) error {
			return r.client.Transfer(ctx, a, to, amount)
		},
	}, nil
}

// swapItem prices a conversion off the latest subscription snapshot for the
// recipient's payout asset. Without a snapshot the recipient is unroutable.
func (r *Router) swapItem(input asset.Asset, rec recipient.Recipient) (SwapItem, error) {
	view, ok := r.subs.Lookup(rec.Asset.Address)
	if !ok || !view.Ready() {
		return SwapItem{}, fmt.Errorf("%s: %w", rec.Asset.Symbol, ErrRouteUnavailable)
	}

	tokenEquivalent, err := quote.TokenEquivalent(rec.USD, rec.Asset, r.client)
	if err != nil {
		return SwapItem{}, err
	}

	plan, err := quote.BuildPlan(r.client, input, rec.Asset, tokenEquivalent, view.Sources, view.Paths, *view.Payload)
	if err != nil {
		return SwapItem{}, err
	}

	output, to := rec.Asset, rec.Wallet
	amountIn := plan.AmountIn
	return SwapItem{
		RecipientID: rec.ID,
		Plan:        plan,
		Action: func(ctx context.Context) error {
			return r.client.SwapAndSend(ctx, to, input, output, amountIn, tokenEquivalent, r.slippageBps, true)
		},
	}, nil
}
