package browser

import (
	"context"
	"fmt"

	"price-tracker/internal/config"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// NewChrome starts one browser process for the whole run. The returned cancel
// func closes every tab and kills the process.
func NewChrome(cfg *config.Config, log *zap.Logger) (context.Context, context.CancelFunc, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,

		// Disable updates and popups
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-component-update", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-default-apps", true),

		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", cfg.Headless),
		chromedp.WindowSize(1920, 1080),

		// Stability flags
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	sugar := log.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(
		allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	cancel := func() {
		log.Debug("closing browser")
		browserCancel()
		allocCancel()
	}

	// First Run on a fresh context launches the process.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		return nil, func() {}, fmt.Errorf("failed to start browser: %w", err)
	}
	log.Info("browser started", zap.Bool("headless", cfg.Headless))

	return browserCtx, cancel, nil
}
