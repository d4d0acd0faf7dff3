package routing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/recipient"
)

func TestProcessingStateClamps(t *testing.T) {
	state := NewProcessingState(3, asset.XOR)

	if state.Retreat() != 0 {
		t.Fatalf("retreat below zero must clamp")
	}
	state.Advance()
	state.Advance()
	if state.Advance() != 2 {
		t.Fatalf("advance past last stage must clamp")
	}
	if state.Stage() != 2 {
		t.Fatalf("unexpected stage: %d", state.Stage())
	}
}

func TestProcessingStateInputAsset(t *testing.T) {
	state := NewProcessingState(3, asset.XOR)
	state.SetInputAsset(asset.VAL)
	if state.InputAsset().Symbol != "VAL" {
		t.Fatalf("unexpected input asset: %s", state.InputAsset().Symbol)
	}
}

func TestRoutedTotals(t *testing.T) {
	recs := []recipient.Recipient{
		{Asset: asset.XOR, Amount: decimal.NewFromInt(100)},
		{Asset: asset.VAL, Amount: decimal.NewFromInt(40)},
		{Asset: asset.XOR, Amount: decimal.NewFromInt(25)},
	}

	totals := RoutedTotals(recs)
	if len(totals) != 2 {
		t.Fatalf("expected 2 totals, got %d", len(totals))
	}
	if totals[0].Asset.Symbol != "XOR" || !totals[0].Amount.Equal(decimal.NewFromInt(125)) {
		t.Fatalf("unexpected XOR total: %+v", totals[0])
	}
	if totals[1].Asset.Symbol != "VAL" || !totals[1].Amount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("unexpected VAL total: %+v", totals[1])
	}
}
