package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Run modes.
const (
	ModeRun     = "run"
	ModeSingle  = "single"
	ModeCoupons = "coupons"
)

// Fetch modes.
const (
	FetchBrowser = "browser"
	FetchStatic  = "static"
)

type Config struct {
	Mail      MailConfig
	Single    SingleConfig
	Promotion PromotionConfig

	ProductsFile string
	BaselineFile string
	StoreDSN     string // empty selects the file stores
	ReportFile   string

	FetchMode         string
	Headless          bool
	Debug             bool
	NavigationTimeout time.Duration // per page load
	RunTimeout        time.Duration // whole invocation
	LowStockThreshold int
}

type MailConfig struct {
	From     string
	Password string
	To       string
	Host     string
	Port     int
}

// Enabled reports whether enough is set to authenticate against the relay.
func (m MailConfig) Enabled() bool {
	return m.From != "" && m.Password != "" && m.To != ""
}

type SingleConfig struct {
	ProductURL    string
	PriceSelector string
}

type PromotionConfig struct {
	URL          string
	LinkSelector string
}

// Load reads a .env file if one exists, then builds the configuration from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	return &Config{
		Mail: MailConfig{
			From:     getEnv("EMAIL", ""),
			Password: getEnv("EMAIL_PASSWORD", ""),
			To:       getEnv("NOTIFY_EMAIL", ""),
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
		},
		Single: SingleConfig{
			ProductURL:    getEnv("PRODUCT_URL", ""),
			PriceSelector: getEnv("PRICE_DOM_SELECTOR", ""),
		},
		Promotion: PromotionConfig{
			URL:          getEnv("PROMOTIONS_URL", ""),
			LinkSelector: getEnv("PROMOTIONS_LINK_SELECTOR", ""),
		},
		ProductsFile:      getEnv("PRODUCTS_FILE", "products.json"),
		BaselineFile:      getEnv("BASELINE_FILE", "last-price.txt"),
		StoreDSN:          getEnv("STORE_DSN", ""),
		ReportFile:        getEnv("REPORT_FILE", ""),
		FetchMode:         strings.ToLower(getEnv("FETCH_MODE", FetchBrowser)),
		Headless:          getEnvAsBool("HEADLESS", true),
		Debug:             getEnvAsBool("DEBUG", false),
		NavigationTimeout: time.Duration(getEnvAsInt("NAVIGATION_TIMEOUT_SECONDS", 180)) * time.Second,
		RunTimeout:        time.Duration(getEnvAsInt("RUN_TIMEOUT_MINUTES", 60)) * time.Minute,
		LowStockThreshold: getEnvAsInt("LOW_STOCK_THRESHOLD", 1),
	}, nil
}

// Validate checks the fields the given mode depends on.
func (c *Config) Validate(mode string) error {
	switch c.FetchMode {
	case FetchBrowser, FetchStatic:
	default:
		return fmt.Errorf("invalid fetch mode: %s (must be browser or static)", c.FetchMode)
	}

	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.RunTimeout <= 0 {
		return fmt.Errorf("run timeout must be positive")
	}
	if c.Mail.Enabled() && (c.Mail.Host == "" || c.Mail.Port <= 0) {
		return fmt.Errorf("SMTP_HOST and SMTP_PORT are required to send mail")
	}

	switch mode {
	case ModeRun:
		if c.StoreDSN == "" && c.ProductsFile == "" {
			return fmt.Errorf("PRODUCTS_FILE or STORE_DSN is required")
		}
	case ModeSingle:
		if c.Single.ProductURL == "" {
			return fmt.Errorf("PRODUCT_URL is required")
		}
		if c.Single.PriceSelector == "" {
			return fmt.Errorf("PRICE_DOM_SELECTOR is required")
		}
		if c.StoreDSN == "" && c.BaselineFile == "" {
			return fmt.Errorf("BASELINE_FILE or STORE_DSN is required")
		}
	case ModeCoupons:
		if c.Promotion.URL == "" {
			return fmt.Errorf("PROMOTIONS_URL is required")
		}
		if c.Promotion.LinkSelector == "" {
			return fmt.Errorf("PROMOTIONS_LINK_SELECTOR is required")
		}
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
