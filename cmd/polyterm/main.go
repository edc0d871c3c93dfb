// Command polyterm is a live terminal dashboard for prediction-market
// order books: search for a market, watch its two-sided depth update in
// real time.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/polyterm/polyterm/internal/book"
	"github.com/polyterm/polyterm/internal/catalog"
	"github.com/polyterm/polyterm/internal/clob"
	"github.com/polyterm/polyterm/internal/config"
	"github.com/polyterm/polyterm/internal/dashboard"
	"github.com/polyterm/polyterm/internal/feed"
	"github.com/polyterm/polyterm/internal/flash"
	"github.com/polyterm/polyterm/internal/gamma"
	"github.com/polyterm/polyterm/internal/logger"
	"github.com/polyterm/polyterm/internal/term"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	marketURL := flag.String("url", "", "Open a market directly by event URL or slug")
	flag.Parse()

	// .env is optional; it feeds the POLYTERM_* endpoint overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.DefaultConfig()
			cfg.ApplyEnv()
		} else {
			fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	app := newApp(cfg, log)
	defer app.feed.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down\n", sig)
		cancel()
	}()

	if err := app.run(ctx, *marketURL); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("polyterm exited with error")
		os.Exit(1)
	}
}

// app holds the long-lived collaborators shared by every dashboard
// session.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	gamma  *gamma.Client
	clob   *clob.Client
	store  *book.Store
	feed   *feed.Client
	det    *flash.Detector
	cache  *catalog.Cache
	sink   *term.Sink
	prompt *term.Prompt
	render dashboard.Config
}

func newApp(cfg *config.Config, log zerolog.Logger) *app {
	httpClient := &http.Client{Timeout: 30 * time.Second}

	gammaClient := gamma.NewClient(httpClient)
	if cfg.API.GammaURL != "" {
		gammaClient.WithBaseURL(cfg.API.GammaURL)
	}
	clobClient := clob.NewClient(httpClient)
	if cfg.API.ClobURL != "" {
		clobClient.WithBaseURL(cfg.API.ClobURL)
	}

	store := book.NewStore()
	feedClient := feed.NewClient(store).
		WithLogger(log).
		WithReconnectConfig(feed.ReconnectConfig{
			InitialBackoff: cfg.Feed.InitialBackoff.Duration(),
			MaxBackoff:     cfg.Feed.MaxBackoff.Duration(),
			BackoffFactor:  cfg.Feed.BackoffFactor,
			Jitter:         cfg.Feed.Jitter,
		})
	if cfg.API.WSURL != "" {
		feedClient.WithURL(cfg.API.WSURL)
	}

	cache := catalog.New(
		catalog.GammaSource(gammaClient, cfg.Catalog.PageSize),
		catalog.WithTTL(cfg.Catalog.TTL.Duration()),
		catalog.WithLimits(cfg.Catalog.TopResults, cfg.Catalog.SearchResults),
		catalog.WithWeights(cfg.Catalog.TitleWeight, cfg.Catalog.DescriptionWeight),
		catalog.WithLogger(log),
	)

	return &app{
		cfg:    cfg,
		log:    log,
		gamma:  gammaClient,
		clob:   clobClient,
		store:  store,
		feed:   feedClient,
		det:    flash.NewDetector(),
		cache:  cache,
		sink:   term.NewSink(os.Stdout),
		prompt: term.NewPrompt(os.Stdin, os.Stdout),
		render: dashboard.Config{
			Interval:    cfg.Render.TickInterval.Duration(),
			DepthSingle: cfg.Render.DepthSingle,
			DepthDual:   cfg.Render.DepthDual,
			StaleAfter:  cfg.Render.StaleAfter.Duration(),
		},
	}
}

func (a *app) run(ctx context.Context, marketURL string) error {
	if marketURL != "" {
		market, err := catalog.ResolveEventURL(ctx, a.gamma, marketURL)
		if err != nil {
			return err
		}
		return a.watch(ctx, market)
	}

	for ctx.Err() == nil {
		query, err := a.prompt.Line(ctx, "search markets (enter for top, Ctrl-C to quit)")
		if err != nil {
			// EOF on stdin, or shutdown.
			return nil
		}

		markets, err := a.cache.Search(ctx, query)
		if err != nil {
			fmt.Printf("search failed: %v\n", err)
			continue
		}

		market, ok, err := a.prompt.Select(ctx, markets)
		if err != nil {
			return nil
		}
		if !ok {
			continue
		}

		if err := a.watch(ctx, market); err != nil {
			fmt.Printf("dashboard error: %v\n", err)
		}
	}
	return nil
}

// watch runs one dashboard session until the user backs out with Enter
// or the context is cancelled.
func (a *app) watch(ctx context.Context, market catalog.Market) error {
	sessionCtx, back := context.WithCancel(ctx)
	defer back()

	go func() {
		if err := a.prompt.Wait(sessionCtx); err == nil {
			back()
		}
	}()

	session := dashboard.NewSession(a.store, a.clob, a.feed, a.det, a.sink, a.render, a.log)
	return session.Run(sessionCtx, market)
}
