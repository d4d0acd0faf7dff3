package routing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/chain/chaintest"
	"github.com/igorvidic21/adar/internal/recipient"
)

type memRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (m *memRecorder) Record(o Outcome) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, o)
	m.mu.Unlock()
}

func execSetup(t *testing.T, csv string, subs Subscriptions) (*chaintest.Client, *recipient.Store, *Executor, *memRecorder) {
	t.Helper()
	client := chaintest.NewClient()
	client.SetPrice(asset.XOR.Address, "1")
	client.SetPrice(asset.VAL.Address, "0.5")
	client.MarkInvalid("bad")

	store := recipient.NewStore()
	builder := recipient.Builder{Assets: asset.NewDefaultRegistry(), Validate: client.ValidateAddress, Prices: client}
	if _, err := recipient.Load(strings.NewReader(csv), "batch.csv", builder, store); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	router := NewRouter(client, store, subs, 50, zerolog.Nop())
	recorder := &memRecorder{}
	exec := NewExecutor(client, store, router, "cnSigner", recorder, zerolog.Nop())
	return client, store, exec, recorder
}

func statusByName(t *testing.T, store *recipient.Store, name string) recipient.Recipient {
	t.Helper()
	for _, rec := range store.Recipients() {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("recipient %s not found", name)
	return recipient.Recipient{}
}

func TestExecuteSwapsFailureIsolation(t *testing.T) {
	csv := "A,cnA1111111111111,10,VAL\nB,cnB2222222222222,20,VAL\nC,cnC3333333333333,30,VAL\n"
	subs := subsMap{asset.VAL.Address: liveView(asset.XOR.Address, asset.VAL.Address)}
	client, store, exec, _ := execSetup(t, csv, subs)
	client.FailWallet("cnB2222222222222")

	plan := exec.router.BuildPlan(asset.XOR)
	if len(plan.Swaps) != 3 {
		t.Fatalf("expected 3 swaps, got %d", len(plan.Swaps))
	}

	exec.ExecuteSwaps(context.Background(), plan.Swaps)

	a := statusByName(t, store, "A")
	b := statusByName(t, store, "B")
	c := statusByName(t, store, "C")
	if a.Status != recipient.StatusSuccess || !a.Completed {
		t.Fatalf("A should succeed, got %s completed=%v", a.Status, a.Completed)
	}
	if b.Status != recipient.StatusFailed || b.Completed {
		t.Fatalf("B should fail without completion, got %s completed=%v", b.Status, b.Completed)
	}
	if c.Status != recipient.StatusSuccess || !c.Completed {
		t.Fatalf("C should still execute after B's failure, got %s", c.Status)
	}
	if len(client.Swaps) != 2 {
		t.Fatalf("expected 2 recorded swaps, got %d", len(client.Swaps))
	}
}

func TestExecuteTransfersAtomicSuccess(t *testing.T) {
	csv := "A,cnA1111111111111,10,XOR\nB,cnB2222222222222,20,XOR\n"
	client, store, exec, _ := execSetup(t, csv, subsMap{})

	plan := exec.router.BuildPlan(asset.XOR)
	if err := exec.ExecuteTransfers(context.Background(), plan.Transfers); err != nil {
		t.Fatalf("ExecuteTransfers returned error: %v", err)
	}

	if len(client.Batches) != 1 || len(client.Batches[0]) != 2 {
		t.Fatalf("expected one batch of 2 calls, got %+v", client.Batches)
	}
	for _, rec := range store.Recipients() {
		if rec.Status != recipient.StatusSuccess || !rec.Completed {
			t.Fatalf("%s should be success+completed, got %s", rec.Name, rec.Status)
		}
	}
}

func TestExecuteTransfersAtomicFailure(t *testing.T) {
	csv := "A,cnA1111111111111,10,XOR\nB,cnB2222222222222,20,XOR\n"
	client, store, exec, _ := execSetup(t, csv, subsMap{})
	client.FailBatch(chain.ErrSubmissionFailed)

	plan := exec.router.BuildPlan(asset.XOR)
	err := exec.ExecuteTransfers(context.Background(), plan.Transfers)
	if !errors.Is(err, chain.ErrSubmissionFailed) {
		t.Fatalf("expected re-raised submission error, got %v", err)
	}

	for _, rec := range store.Recipients() {
		if rec.Status != recipient.StatusFailed {
			t.Fatalf("%s should be failed, got %s", rec.Name, rec.Status)
		}
		if rec.Completed {
			t.Fatalf("%s must not be completed after batch failure", rec.Name)
		}
	}
}

func TestExecuteTransfersEmptyBatch(t *testing.T) {
	_, _, exec, _ := execSetup(t, "A,cnA1111111111111,10,XOR\n", subsMap{})
	if err := exec.ExecuteTransfers(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}
}

func TestRetryTransitions(t *testing.T) {
	csv := "A,cnA1111111111111,10,XOR\n"
	client, store, exec, recorder := execSetup(t, csv, subsMap{})
	id := store.Recipients()[0].ID

	// first attempt fails, retry succeeds once the wallet recovers
	client.FailBatch(chain.ErrSubmissionFailed)
	plan := exec.router.BuildPlan(asset.XOR)
	_ = exec.ExecuteTransfers(context.Background(), plan.Transfers)
	if rec, _ := store.Get(id); rec.Status != recipient.StatusFailed {
		t.Fatalf("expected failed before retry, got %s", rec.Status)
	}

	if err := exec.Retry(context.Background(), id, asset.XOR); err != nil {
		t.Fatalf("Retry returned error: %v", err)
	}
	rec, _ := store.Get(id)
	if rec.Status != recipient.StatusSuccess || !rec.Completed {
		t.Fatalf("expected success after retry, got %s completed=%v", rec.Status, rec.Completed)
	}
	if len(client.Transfers) != 1 {
		t.Fatalf("retry should submit a single transfer, got %d", len(client.Transfers))
	}
	if len(recorder.outcomes) < 2 {
		t.Fatalf("expected journal entries for both attempts, got %d", len(recorder.outcomes))
	}
}

func TestRetryFailureStaysFailed(t *testing.T) {
	csv := "A,cnA1111111111111,10,XOR\n"
	client, store, exec, _ := execSetup(t, csv, subsMap{})
	id := store.Recipients()[0].ID
	client.FailWallet("cnA1111111111111")

	if err := exec.Retry(context.Background(), id, asset.XOR); err != nil {
		t.Fatalf("execution failure must be absorbed into status, got %v", err)
	}
	if rec, _ := store.Get(id); rec.Status != recipient.StatusFailed {
		t.Fatalf("expected failed, got %s", rec.Status)
	}
}

func TestRetryUnknownID(t *testing.T) {
	_, _, exec, _ := execSetup(t, "A,cnA1111111111111,10,XOR\n", subsMap{})
	err := exec.Retry(context.Background(), "stale-id", asset.XOR)
	if !errors.Is(err, recipient.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRetrySwapWithoutSubscription(t *testing.T) {
	csv := "A,cnA1111111111111,10,VAL\n"
	_, store, exec, _ := execSetup(t, csv, subsMap{})
	id := store.Recipients()[0].ID

	err := exec.Retry(context.Background(), id, asset.XOR)
	if !errors.Is(err, ErrRouteUnavailable) {
		t.Fatalf("expected ErrRouteUnavailable, got %v", err)
	}
	if rec, _ := store.Get(id); rec.Status != recipient.StatusAddressValid {
		t.Fatalf("unroutable retry should revert status, got %s", rec.Status)
	}
}

func TestRunExecutesBothBatches(t *testing.T) {
	csv := "A,cnA1111111111111,10,XOR\nB,cnB2222222222222,20,VAL\n"
	subs := subsMap{asset.VAL.Address: liveView(asset.XOR.Address, asset.VAL.Address)}
	client, _, exec, _ := execSetup(t, csv, subs)

	plan := exec.router.BuildPlan(asset.XOR)
	if err := exec.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(client.Swaps) != 1 || len(client.Batches) != 1 {
		t.Fatalf("expected one swap and one batch, got %d/%d", len(client.Swaps), len(client.Batches))
	}
}
