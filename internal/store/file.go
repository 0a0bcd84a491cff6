package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// productDocument is the on-disk shape of the product list.
type productDocument struct {
	Products []Product `json:"products"`
}

// ProductFile keeps the product list in a JSON document. Fields it does not
// know about are dropped on Save; product order is kept.
type ProductFile struct {
	Path string
}

func NewProductFile(path string) *ProductFile {
	return &ProductFile{Path: path}
}

func (f *ProductFile) Load(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Path, err)
	}

	var doc productDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.Path, err)
	}
	return doc.Products, nil
}

func (f *ProductFile) Save(ctx context.Context, products []Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if products == nil {
		products = []Product{}
	}

	data, err := json.MarshalIndent(productDocument{Products: products}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding products: %w", err)
	}
	return writeFileAtomic(f.Path, append(data, '\n'))
}

// BaselineFile holds a single baseline price as plain text. The key is ignored.
type BaselineFile struct {
	Path string
}

func NewBaselineFile(path string) *BaselineFile {
	return &BaselineFile{Path: path}
}

// Baseline returns the stored price, creating the file with InitialBaseline when it does not exist.
func (f *BaselineFile) Baseline(ctx context.Context, _ string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	data, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := f.write(InitialBaseline); err != nil {
			return 0, err
		}
		return InitialBaseline, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", f.Path, err)
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil || math.IsNaN(v) {
		return 0, fmt.Errorf("%w in %s: %q", ErrInvalidBaseline, f.Path, string(data))
	}
	return v, nil
}

func (f *BaselineFile) SetBaseline(ctx context.Context, _ string, price float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.write(price)
}

func (f *BaselineFile) write(price float64) error {
	return writeFileAtomic(f.Path, []byte(strconv.FormatFloat(price, 'f', -1, 64)))
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
