package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/igorvidic21/adar/internal/asset"
	"github.com/igorvidic21/adar/internal/chain"
	"github.com/igorvidic21/adar/internal/chain/remote"
	"github.com/igorvidic21/adar/internal/config"
	"github.com/igorvidic21/adar/internal/metrics"
	"github.com/igorvidic21/adar/internal/recipient"
	"github.com/igorvidic21/adar/internal/report"
	"github.com/igorvidic21/adar/internal/reserves"
	"github.com/igorvidic21/adar/internal/routing"
	"github.com/igorvidic21/adar/internal/util"
)

func main() {
	cfg, err := config.Load("internal/config/config.yaml")
	if err != nil {
		l := util.NewLogger("info")
		l.Fatal().Err(err).Msg("load config")
	}
	log := util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	signer, err := remote.LoadSignerFromEnv()
	if err != nil {
		signer = cfg.Chain.SignerAddress
	}
	if signer == "" {
		log.Fatal().Msg("no signer address configured")
	}

	client := remote.NewClient(
		getEnv("ADAR_GATEWAY_URL", cfg.Chain.GatewayURL),
		getEnv("ADAR_GATEWAY_WS_URL", cfg.Chain.GatewayWSURL),
		signer,
		log,
	)

	registry := asset.NewDefaultRegistry()
	input, ok := registry.Lookup(cfg.Routing.InputAsset)
	if !ok {
		log.Fatal().Str("symbol", cfg.Routing.InputAsset).Msg("unknown input asset")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if cfg.Routing.RunTimeoutSecs > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, time.Duration(cfg.Routing.RunTimeoutSecs)*time.Second)
		defer timeoutCancel()
	}

	store := recipient.NewStore()
	builder := recipient.Builder{
		Assets:   registry,
		Validate: client.ValidateAddress,
		Prices:   client,
	}

	file, err := os.Open(cfg.Routing.CSVPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Routing.CSVPath).Msg("open recipient file")
	}
	result, err := recipient.Load(file, cfg.Routing.CSVPath, builder, store)
	file.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("import recipients")
	}
	log.Info().Int("loaded", result.Loaded).Ints("skipped", result.Skipped).Ints("fallbacks", result.Fallbacks).Msg("recipients imported")

	sources := chain.ParseSources(cfg.Routing.LiquiditySources)
	manager := reserves.NewManager(client, store, sources, cfg.Routing.EnabledAssets, log)
	if err := manager.Start(ctx, input); err != nil {
		log.Fatal().Err(err).Msg("start reserve subscriptions")
	}
	defer manager.Stop()

	waitForSubscriptions(ctx, manager, time.Duration(cfg.Routing.SubscriptionWarmupMs)*time.Millisecond)

	var recorder routing.Recorder
	if cfg.Routing.JournalPath != "" {
		journal, err := report.NewJournal(cfg.Routing.JournalPath)
		if err != nil {
			log.Fatal().Err(err).Msg("open journal")
		}
		defer journal.Close()
		recorder = journal
	}

	router := routing.NewRouter(client, store, manager, cfg.Routing.SlippageBps, log)
	exec := routing.NewExecutor(client, store, router, signer, recorder, log)

	plan := router.BuildPlan(input)
	log.Info().
		Int("transfers", len(plan.Transfers)).
		Int("swaps", len(plan.Swaps)).
		Int("unrouted", len(plan.Unrouted)).
		Msg("routing plan built")

	if err := exec.Run(ctx, plan); err != nil {
		log.Error().Err(err).Msg("transfer batch failed")
	}

	for _, total := range routing.RoutedTotals(store.Completed()) {
		log.Info().Str("asset", total.Asset.Symbol).Str("amount", total.Amount.String()).Msg("routed")
	}
	for _, item := range plan.Unrouted {
		log.Warn().Str("recipient", item.RecipientID).Err(item.Err).Msg("left unrouted; re-run to pick up")
	}
}

// waitForSubscriptions blocks until every subscription has seen a tick or
// the warmup window elapses.
func waitForSubscriptions(ctx context.Context, manager *reserves.Manager, warmup time.Duration) {
	if warmup <= 0 {
		return
	}
	deadline := time.NewTimer(warmup)
	defer deadline.Stop()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-ticker.C:
			if manager.Ready() {
				return
			}
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
