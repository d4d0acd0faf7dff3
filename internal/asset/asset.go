// Package asset describes on-ledger currencies and resolves CSV symbols to them.
package asset

import (
	"strings"
	"sync"
)

// Asset identifies one on-ledger currency.
type Asset struct {
	Address  string `json:"address" yaml:"address"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals uint8  `json:"decimals" yaml:"decimals"`
}

// Core assets of the target ledger.
var (
	XOR   = Asset{Address: "0x0200000000000000000000000000000000000000000000000000000000000000", Symbol: "XOR", Decimals: 18}
	VAL   = Asset{Address: "0x0200040000000000000000000000000000000000000000000000000000000000", Symbol: "VAL", Decimals: 18}
	PSWAP = Asset{Address: "0x0200050000000000000000000000000000000000000000000000000000000000", Symbol: "PSWAP", Decimals: 18}
)

// Registry maps symbols to asset descriptors. Unresolved symbols fall back to
// the designated default asset.
type Registry struct {
	mu       sync.RWMutex
	bySymbol map[string]Asset
	def      Asset
}

// NewRegistry builds a registry seeded with the given assets. The default is
// registered as well.
func NewRegistry(def Asset, assets ...Asset) *Registry {
	r := &Registry{bySymbol: make(map[string]Asset, len(assets)+1), def: def}
	r.Register(def)
	for _, a := range assets {
		r.Register(a)
	}
	return r
}

// NewDefaultRegistry returns a registry holding the core ledger assets with
// XOR as the fallback.
func NewDefaultRegistry() *Registry {
	return NewRegistry(XOR, VAL, PSWAP)
}

// Register adds or replaces an asset keyed by its upper-cased symbol.
func (r *Registry) Register(a Asset) {
	r.mu.Lock()
	r.bySymbol[strings.ToUpper(a.Symbol)] = a
	r.mu.Unlock()
}

// Lookup resolves a symbol case-insensitively.
func (r *Registry) Lookup(symbol string) (Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.bySymbol[strings.ToUpper(strings.TrimSpace(symbol))]
	return a, ok
}

// LookupOrDefault resolves a symbol, falling back to the default asset. The
// second return reports whether the symbol resolved.
func (r *Registry) LookupOrDefault(symbol string) (Asset, bool) {
	if a, ok := r.Lookup(symbol); ok {
		return a, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def, false
}

// Default returns the fallback asset.
func (r *Registry) Default() Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}
