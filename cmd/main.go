package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"price-tracker/internal/browser"
	"price-tracker/internal/config"
	"price-tracker/internal/logger"
	"price-tracker/internal/notify"
	"price-tracker/internal/report"
	"price-tracker/internal/scraper"
	"price-tracker/internal/store"
	"price-tracker/internal/tracker"

	cli "github.com/jawher/mow.cli"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	app := cli.App("price-tracker", "Check product pages once for price drops, low stock and promotions")

	app.BoolPtr(&cfg.Headless, cli.BoolOpt{Name: "headless", Value: cfg.Headless, Desc: "Run the browser headless"})
	app.BoolPtr(&cfg.Debug, cli.BoolOpt{Name: "d debug", Value: cfg.Debug, Desc: "Enable debug logging"})
	app.StringPtr(&cfg.FetchMode, cli.StringOpt{Name: "fetch", Value: cfg.FetchMode, Desc: "Page fetcher: browser or static"})
	app.StringPtr(&cfg.ReportFile, cli.StringOpt{Name: "report", Value: cfg.ReportFile, Desc: "Write an XLSX run report to this path"})
	timeout := app.IntOpt("timeout", int(cfg.NavigationTimeout.Seconds()), "Per-page navigation timeout in seconds")

	app.Before = func() {
		cfg.NavigationTimeout = time.Duration(*timeout) * time.Second
	}

	app.Command("run", "Check every tracked product and save new baselines", func(cmd *cli.Cmd) {
		cmd.StringPtr(&cfg.ProductsFile, cli.StringOpt{Name: "products", Value: cfg.ProductsFile, Desc: "Product list JSON file"})
		cmd.Action = func() {
			execute(cfg, config.ModeRun, func(ctx context.Context, t *tracker.Tracker) (*tracker.Report, error) {
				return t.RunOnce(ctx)
			})
		}
	})

	app.Command("single", "Check PRODUCT_URL against the baseline file", func(cmd *cli.Cmd) {
		cmd.StringPtr(&cfg.BaselineFile, cli.StringOpt{Name: "baseline", Value: cfg.BaselineFile, Desc: "Baseline price file"})
		cmd.Action = func() {
			execute(cfg, config.ModeSingle, func(ctx context.Context, t *tracker.Tracker) (*tracker.Report, error) {
				return t.RunSingle(ctx, cfg.Single.ProductURL, cfg.Single.PriceSelector)
			})
		}
	})

	app.Command("coupons", "Look for tracked products on the promotions page", func(cmd *cli.Cmd) {
		cmd.StringPtr(&cfg.ProductsFile, cli.StringOpt{Name: "products", Value: cfg.ProductsFile, Desc: "Product list JSON file"})
		cmd.Action = func() {
			execute(cfg, config.ModeCoupons, func(ctx context.Context, t *tracker.Tracker) (*tracker.Report, error) {
				return t.CheckCoupons(ctx, cfg.Promotion.URL, cfg.Promotion.LinkSelector)
			})
		}
	})

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, t *tracker.Tracker) (*tracker.Report, error)

func execute(cfg *config.Config, mode string, run runFunc) {
	if err := cfg.Validate(mode); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		cli.Exit(1)
	}

	log, err := logger.New(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		cli.Exit(1)
	}

	code := runMode(cfg, mode, run, log)
	_ = log.Sync()
	cli.Exit(code)
}

func runMode(cfg *config.Config, mode string, run runFunc, log *zap.Logger) int {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.RunTimeout)
	defer cancel()

	products, baselines, closeStore, err := openStores(cfg)
	if err != nil {
		log.Error("opening store failed", zap.Error(err))
		return 1
	}
	defer closeStore()

	fetcher, closeFetcher, err := newFetcher(cfg, log)
	if err != nil {
		log.Error("initializing fetcher failed", zap.Error(err))
		return 1
	}
	defer closeFetcher()

	var mailer notify.Mailer
	if cfg.Mail.Enabled() {
		mailer = notify.NewSMTPMailer(cfg.Mail)
	} else {
		log.Warn("EMAIL, EMAIL_PASSWORD or NOTIFY_EMAIL not set, alerts will only be logged")
	}

	t := tracker.New(fetcher, products, baselines, notify.New(mailer, log), cfg, log)

	log.Info("starting run", zap.String("mode", mode), zap.String("fetch", cfg.FetchMode))
	res, err := run(ctx, t)
	if res != nil {
		report.Log(log, res)
		if cfg.ReportFile != "" {
			if werr := report.WriteXLSX(cfg.ReportFile, res); werr != nil {
				log.Error("writing report failed", zap.Error(werr))
			} else {
				log.Info("report written", zap.String("path", cfg.ReportFile))
			}
		}
	}
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return 1
	}
	return 0
}

func openStores(cfg *config.Config) (store.ProductStore, store.BaselineStore, func(), error) {
	if cfg.StoreDSN != "" {
		db, err := store.OpenSQL(cfg.StoreDSN)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, func() { _ = db.Close() }, nil
	}
	return store.NewProductFile(cfg.ProductsFile), store.NewBaselineFile(cfg.BaselineFile), func() {}, nil
}

func newFetcher(cfg *config.Config, log *zap.Logger) (tracker.Fetcher, func(), error) {
	if cfg.FetchMode == config.FetchStatic {
		return scraper.NewStatic(cfg.NavigationTimeout, log), func() {}, nil
	}

	browserCtx, cancel, err := browser.NewChrome(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return scraper.New(browserCtx, cfg.NavigationTimeout, log), cancel, nil
}
