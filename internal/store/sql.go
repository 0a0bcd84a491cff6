package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// trackedProduct is the database row behind a Product.
type trackedProduct struct {
	ID                           uint   `gorm:"primaryKey"`
	URL                          string `gorm:"size:768;uniqueIndex;not null"`
	Selector                     string `gorm:"size:512"`
	ProductName                  string `gorm:"size:255"`
	StartingPrice                float64
	RemainingProductsDOMSelector string `gorm:"size:512"`
	CreatedAt                    time.Time
	UpdatedAt                    time.Time
}

func (trackedProduct) TableName() string {
	return "tracked_products"
}

func fromRow(r trackedProduct) Product {
	return Product{
		URL:                          r.URL,
		Selector:                     r.Selector,
		ProductName:                  r.ProductName,
		StartingPrice:                r.StartingPrice,
		RemainingProductsDOMSelector: r.RemainingProductsDOMSelector,
	}
}

func toRow(p Product) trackedProduct {
	return trackedProduct{
		URL:                          p.URL,
		Selector:                     p.Selector,
		ProductName:                  p.ProductName,
		StartingPrice:                p.StartingPrice,
		RemainingProductsDOMSelector: p.RemainingProductsDOMSelector,
	}
}

// columns lists every value Save writes for p. A map rather than a struct so
// that gorm also writes zero values, such as a cleared stock selector.
func columns(p Product) map[string]interface{} {
	return map[string]interface{}{
		"selector":                        p.Selector,
		"product_name":                    p.ProductName,
		"starting_price":                  p.StartingPrice,
		"remaining_products_dom_selector": p.RemainingProductsDOMSelector,
	}
}

// SQLStore keeps products in a MySQL table keyed by URL. It serves both the
// product list and single-product baselines.
type SQLStore struct {
	db *gorm.DB
}

// OpenSQL connects to MySQL and migrates the schema.
func OpenSQL(dsn string) (*SQLStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// One sequential run per process.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewSQLStore(db)
}

// NewSQLStore wraps an open connection and migrates the schema.
func NewSQLStore(db *gorm.DB) (*SQLStore, error) {
	if err := db.AutoMigrate(&trackedProduct{}); err != nil {
		return nil, fmt.Errorf("migrating tracked_products: %w", err)
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Load(ctx context.Context) ([]Product, error) {
	var rows []trackedProduct
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading products: %w", err)
	}

	products := make([]Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, fromRow(r))
	}
	return products, nil
}

// Save upserts every product by URL in a single transaction.
func (s *SQLStore) Save(ctx context.Context, products []Product) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range products {
			row := toRow(p)
			err := tx.Where(trackedProduct{URL: p.URL}).
				Assign(columns(p)).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("saving %s: %w", p.URL, err)
			}
		}
		return nil
	})
}

// Baseline returns the starting price stored for key, inserting InitialBaseline for unknown keys.
func (s *SQLStore) Baseline(ctx context.Context, key string) (float64, error) {
	var row trackedProduct
	err := s.db.WithContext(ctx).Where("url = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = trackedProduct{URL: key, StartingPrice: InitialBaseline}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return 0, fmt.Errorf("initializing baseline for %s: %w", key, err)
		}
		return InitialBaseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading baseline for %s: %w", key, err)
	}
	return row.StartingPrice, nil
}

func (s *SQLStore) SetBaseline(ctx context.Context, key string, price float64) error {
	err := s.db.WithContext(ctx).
		Where(trackedProduct{URL: key}).
		Assign(map[string]interface{}{"starting_price": price}).
		FirstOrCreate(&trackedProduct{}).Error
	if err != nil {
		return fmt.Errorf("updating baseline for %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
