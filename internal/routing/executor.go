package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/metrics"
	"github.com/igorvidic21/adar/internal/recipient"
)

// Outcome is the journal record of one execution attempt.
type Outcome struct {
	RecipientID string           `json:"recipient_id"`
	Name        string           `json:"name"`
	Wallet      string           `json:"wallet"`
	Symbol      string           `json:"symbol"`
	USD         string           `json:"usd"`
	Amount      string           `json:"amount"`
	Status      recipient.Status `json:"status"`
	Err         string           `json:"err,omitempty"`
	Ts          time.Time        `json:"ts"`
}

// Recorder captures outcomes for later inspection.
type Recorder interface {
	Record(Outcome)
}

// Executor runs classified plans against the chain client.
type Executor struct {
	log      zerolog.Logger
	client   chain.Client
	store    *recipient.Store
	router   *Router
	signer   string
	recorder Recorder // nil disables journaling
}

// NewExecutor wires the batch executor. recorder may be nil.
func NewExecutor(client chain.Client, store *recipient.Store, router *Router, signer string, recorder Recorder, log zerolog.Logger) *Executor {
	return &Executor{log: log, client: client, store: store, router: router, signer: signer, recorder: recorder}
}

// Run executes the swap batch, then the transfer batch. Swap failures are
// absorbed into per-recipient statuses; a transfer batch failure is returned
// after every member has been marked Failed.
func (e *Executor) Run(ctx context.Context, plan Plan) error {
	e.ExecuteSwaps(ctx, plan.Swaps)
	return e.ExecuteTransfers(ctx, plan.Transfers)
}

// ExecuteSwaps runs swap actions strictly sequentially. One action is in
// flight at a time: each swap commits a chain transaction, and concurrent
// submission could race nonces or liquidity. A failure marks that recipient
// Failed and the loop continues.
func (e *Executor) ExecuteSwaps(ctx context.Context, items []SwapItem) {
	for _, item := range items {
		if err := item.Action(ctx); err != nil {
			e.log.Warn().Err(err).Str("recipient", item.RecipientID).Msg("swap failed")
			metrics.SwapsTotal.WithLabelValues("failed").Inc()
			e.finish(item.RecipientID, recipient.StatusFailed, err)
			continue
		}
		metrics.SwapsTotal.WithLabelValues("success").Inc()
		e.finish(item.RecipientID, recipient.StatusSuccess, nil)
	}
}

// ExecuteTransfers submits all transfer descriptors as one atomic multi-call.
// On failure every participating recipient is marked Failed and the error is
// returned to the caller.
func (e *Executor) ExecuteTransfers(ctx context.Context, items []TransferItem) error {
	if len(items) == 0 {
		return nil
	}

	calls := make([]chain.TransferCall, len(items))
	for i, item := range items {
		calls[i] = item.Call
	}
	meta := chain.HistoryMeta{
		Symbol:       items[0].Call.Asset.Symbol,
		From:         e.signer,
		AssetAddress: items[0].Call.Asset.Address,
		Type:         chain.OpTransfer,
	}

	if err := e.client.SubmitBatch(ctx, calls, e.signer, meta); err != nil {
		metrics.TransferBatches.WithLabelValues("failed").Inc()
		for _, item := range items {
			e.finish(item.RecipientID, recipient.StatusFailed, err)
		}
		return fmt.Errorf("transfer batch: %w", err)
	}

	metrics.TransferBatches.WithLabelValues("success").Inc()
	for _, item := range items {
		e.finish(item.RecipientID, recipient.StatusSuccess, nil)
	}
	return nil
}

// Retry re-executes the single action for one recipient by id. Stale ids are
// a checked error; execution failure is absorbed into the Failed status like
// the swap batch does.
func (e *Executor) Retry(ctx context.Context, id string, input asset.Asset) error {
	rec, ok := e.store.Get(id)
	if !ok {
		return fmt.Errorf("retry %s: %w", id, recipient.ErrNotFound)
	}
	metrics.RetriesTotal.Inc()
	_ = e.store.SetStatus(id, recipient.StatusPending)

	var action Action
	if rec.Asset.Address == input.Address {
		item, err := e.router.transferItem(rec)
		if err != nil {
			_ = e.store.SetStatus(id, recipient.StatusAddressValid)
			return fmt.Errorf("retry %s: %w", id, err)
		}
		action = item.Action
	} else {
		item, err := e.router.swapItem(input, rec)
		if err != nil {
			_ = e.store.SetStatus(id, recipient.StatusAddressValid)
			return fmt.Errorf("retry %s: %w", id, err)
		}
		action = item.Action
	}

	if err := action(ctx); err != nil {
		e.log.Warn().Err(err).Str("recipient", id).Msg("retry failed")
		e.finish(id, recipient.StatusFailed, err)
		return nil
	}
	e.finish(id, recipient.StatusSuccess, nil)
	return nil
}

// finish applies the terminal status, sets completion on success, and writes
// the journal record.
func (e *Executor) finish(id string, status recipient.Status, cause error) {
	_ = e.store.SetStatus(id, status)
	if status == recipient.StatusSuccess {
		_ = e.store.MarkCompleted(id)
	}
	if e.recorder == nil {
		return
	}
	rec, ok := e.store.Get(id)
	if !ok {
		return
	}
	out := Outcome{
		RecipientID: rec.ID,
		Name:        rec.Name,
		Wallet:      rec.Wallet,
		Symbol:      rec.Asset.Symbol,
		USD:         rec.USD.String(),
		Amount:      rec.Amount.String(),
		Status:      status,
		Ts:          time.Now(),
	}
	if cause != nil {
		out.Err = cause.Error()
	}
	e.recorder.Record(out)
}
