package routing

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/recipient"
)

// ProcessingState tracks the wizard position and the chosen input asset.
// The stage index is clamped to the valid range; this package does not gate
// batch operations on it.
type ProcessingState struct {
	mu     sync.Mutex
	stage  int
	stages int
	input  asset.Asset
}

// NewProcessingState starts at stage zero with the given stage count and
// input asset.
func NewProcessingState(stages int, input asset.Asset) *ProcessingState {
	if stages < 1 {
		stages = 1
	}
	return &ProcessingState{stages: stages, input: input}
}

// Advance moves one stage forward and returns the clamped index.
func (p *ProcessingState) Advance() int { return p.move(1) }

// Retreat moves one stage back and returns the clamped index.
func (p *ProcessingState) Retreat() int { return p.move(-1) }

func (p *ProcessingState) move(delta int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage += delta
	if p.stage < 0 {
		p.stage = 0
	}
	if p.stage > p.stages-1 {
		p.stage = p.stages - 1
	}
	return p.stage
}

// Stage returns the current stage index.
func (p *ProcessingState) Stage() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// SetInputAsset records the payer's source currency.
func (p *ProcessingState) SetInputAsset(a asset.Asset) {
	p.mu.Lock()
	p.input = a
	p.mu.Unlock()
}

// InputAsset returns the payer's source currency.
func (p *ProcessingState) InputAsset() asset.Asset {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// RoutedTotal aggregates the token amount routed for one payout asset.
type RoutedTotal struct {
	Asset  asset.Asset
	Amount decimal.Decimal
}

// RoutedTotals sums token amounts per payout asset over the given
// recipients, in first-appearance order.
func RoutedTotals(recs []recipient.Recipient) []RoutedTotal {
	index := make(map[string]int, len(recs))
	var totals []RoutedTotal
	for _, rec := range recs {
		i, ok := index[rec.Asset.Address]
		if !ok {
			i = len(totals)
			index[rec.Asset.Address] = i
			totals = append(totals, RoutedTotal{Asset: rec.Asset, Amount: decimal.Zero})
		}
		totals[i].Amount = totals[i].Amount.Add(rec.Amount)
	}
	return totals
}
