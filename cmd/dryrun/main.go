// Binary dryrun walks the full routing flow against a scripted in-memory
// gateway. Nothing is submitted anywhere; use it to sanity-check a recipient
// file before a live run.
package main

import (
	"context"
	"os"
	"time"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/chain/chaintest"
	"github.com/igorvidic21/adar/internal/recipient"
	"github.com/igorvidic21/adar/internal/reserves"
	"github.com/igorvidic21/adar/internal/routing"
	"github.com/igorvidic21/adar/internal/util"
)

func main() {
	log := util.NewLogger("debug")

	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: dryrun <recipients.csv>")
	}
	path := os.Args[1]

	client := chaintest.NewClient()
	client.SetPrice(asset.XOR.Address, "1.00")
	client.SetPrice(asset.VAL.Address, "0.50")
	client.SetPrice(asset.PSWAP.Address, "0.02")

	registry := asset.NewDefaultRegistry()
	store := recipient.NewStore()
	builder := recipient.Builder{
		Assets:   registry,
		Validate: client.ValidateAddress,
		Prices:   client,
	}

	file, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("open recipient file")
	}
	result, err := recipient.Load(file, path, builder, store)
	file.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("import recipients")
	}
	log.Info().Int("loaded", result.Loaded).Ints("skipped", result.Skipped).Ints("fallbacks", result.Fallbacks).Msg("recipients imported")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	manager := reserves.NewManager(client, store, []chain.LiquiditySource{chain.SourceXYKPool}, nil, log)
	if err := manager.Start(ctx, asset.XOR); err != nil {
		log.Fatal().Err(err).Msg("start reserve subscriptions")
	}
	defer manager.Stop()

	// scripted feeds tick on demand
	for _, addr := range manager.Active() {
		client.PushReserves(addr)
	}
	for !manager.Ready() {
		time.Sleep(10 * time.Millisecond)
	}

	router := routing.NewRouter(client, store, manager, 50, log)
	exec := routing.NewExecutor(client, store, router, "cnDryRunSigner", nil, log)

	plan := router.BuildPlan(asset.XOR)
	if err := exec.Run(ctx, plan); err != nil {
		log.Error().Err(err).Msg("transfer batch failed")
	}

	for _, rec := range store.Recipients() {
		log.Info().
			Str("name", rec.Name).
			Str("wallet", util.ShortenAddress(rec.Wallet)).
			Str("asset", rec.Asset.Symbol).
			Str("usd", rec.USD.String()).
			Str("amount", rec.Amount.String()).
			Str("status", string(rec.Status)).
			Msg("outcome")
	}
}
