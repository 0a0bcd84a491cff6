// Package report exports and logs the outcome of a run.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"price-tracker/internal/tracker"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	productsSheet = "Products"
	couponsSheet  = "Coupons"
)

var (
	productsHeader = []interface{}{"Product", "URL", "Status", "Previous", "Current", "Remaining", "Alerts", "Reason"}
	couponsHeader  = []interface{}{"Product", "URL", "Promotion link", "Alert sent"}
)

// WriteXLSX writes r to an Excel workbook at path, one sheet for product
// outcomes and one for promotion matches.
func WriteXLSX(path string, r *tracker.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", productsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", productsSheet, err)
	}
	if _, err := f.NewSheet(couponsSheet); err != nil {
		return fmt.Errorf("creating %s sheet: %w", couponsSheet, err)
	}

	if err := writeRow(f, productsSheet, 1, productsHeader); err != nil {
		return err
	}
	for i, o := range r.Outcomes {
		row := []interface{}{
			o.Product.Name(),
			o.Product.URL,
			string(o.Status),
			o.Previous,
			optionalPrice(o.Current),
			optionalInt(o.Remaining),
			alertsCell(o.Alerts),
			o.Reason,
		}
		if err := writeRow(f, productsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := writeRow(f, couponsSheet, 1, couponsHeader); err != nil {
		return err
	}
	for i, c := range r.Coupons {
		row := []interface{}{c.Product.Name(), c.Product.URL, c.Link, c.Sent}
		if err := writeRow(f, couponsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Price tracker run " + r.RunID,
		Description: fmt.Sprintf("%s run started %s", r.Mode, r.StartedAt.Format(time.RFC3339)),
	}); err != nil {
		return fmt.Errorf("setting document properties: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving report %s: %w", path, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}

func optionalPrice(v float64) interface{} {
	if v == 0 {
		return ""
	}
	return v
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func alertsCell(alerts []tracker.Alert) string {
	parts := make([]string, 0, len(alerts))
	for _, a := range alerts {
		parts = append(parts, string(a.Kind)+"="+strconv.FormatBool(a.Sent))
	}
	return strings.Join(parts, ", ")
}

// Log writes a summary line for r followed by one line per product outcome.
// Skipped products are logged at warn level with their reason.
func Log(log *zap.Logger, r *tracker.Report) {
	log.Info("run finished",
		zap.String("run_id", r.RunID),
		zap.String("mode", r.Mode),
		zap.Duration("took", r.FinishedAt.Sub(r.StartedAt)),
		zap.Int("products", len(r.Outcomes)),
		zap.Int("dropped", r.Count(tracker.StatusDropped)),
		zap.Int("unchanged", r.Count(tracker.StatusUnchanged)),
		zap.Int("skipped", r.Count(tracker.StatusSkipped)),
		zap.Int("low_stock_alerts", r.Alerts(tracker.AlertLowStock)),
		zap.Int("promotions", len(r.Coupons)),
	)

	for _, o := range r.Outcomes {
		fields := []zap.Field{
			zap.String("product", o.Product.Name()),
			zap.String("status", string(o.Status)),
			zap.Float64("previous", o.Previous),
		}
		if o.Remaining != nil {
			fields = append(fields, zap.Int("remaining", *o.Remaining))
		}

		if o.Status == tracker.StatusSkipped {
			log.Warn("product skipped", append(fields, zap.String("reason", o.Reason))...)
			continue
		}
		log.Info("product checked", append(fields, zap.Float64("current", o.Current))...)
	}
}
