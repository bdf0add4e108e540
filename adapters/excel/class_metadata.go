// Package excel reads drug-class reference statistics from the
// spreadsheets the analytics team maintains: one row per historical
// trial, columns for class and standardized effect size.
package excel

import (
	"context"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"trialgate/domain/trial"
	"trialgate/internal/errors"
)

// ClassMetadataReader loads historical effect distributions per class.
type ClassMetadataReader struct {
	effectsByClass map[string][]float64
}

// NewClassMetadataReader reads the whole workbook up front; lookups
// afterwards are in-memory and safe for concurrent use.
func NewClassMetadataReader(path string) (*ClassMetadataReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open class metadata workbook %s", path)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	if len(rows) < 2 {
		return nil, errors.InvalidInput("class metadata workbook has no data rows")
	}

	classCol, effectCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "class", "drug_class":
			classCol = i
		case "effect", "effect_size":
			effectCol = i
		}
	}
	if classCol < 0 || effectCol < 0 {
		return nil, errors.InvalidInput("class metadata workbook missing class/effect columns")
	}

	effects := make(map[string][]float64)
	for _, row := range rows[1:] {
		if len(row) <= classCol || len(row) <= effectCol {
			continue
		}
		class := strings.TrimSpace(row[classCol])
		if class == "" {
			continue
		}
		effect, err := strconv.ParseFloat(strings.TrimSpace(row[effectCol]), 64)
		if err != nil {
			continue // non-numeric cells are skipped, not fatal
		}
		effects[class] = append(effects[class], effect)
	}

	return &ClassMetadataReader{effectsByClass: effects}, nil
}

// ForClass returns the historical distribution for one drug class, or
// nil when the class is unknown; evaluators treat nil as insufficiency.
func (r *ClassMetadataReader) ForClass(_ context.Context, class string) (*trial.ClassMetadata, error) {
	effects, ok := r.effectsByClass[strings.TrimSpace(class)]
	if !ok {
		return nil, nil
	}
	return &trial.ClassMetadata{
		Class:             class,
		HistoricalEffects: effects,
	}, nil
}

// Classes lists the classes the workbook covers.
func (r *ClassMetadataReader) Classes() []string {
	out := make([]string, 0, len(r.effectsByClass))
	for class := range r.effectsByClass {
		out = append(out, class)
	}
	return out
}
