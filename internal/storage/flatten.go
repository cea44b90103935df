package storage

import (
	"fmt"
	"sort"

	"equity-feature-lab/internal/domain"
)

// Names of the preprocessing columns stored alongside requested features.
const (
	ColumnReturn    = "return"
	ColumnTCost     = "tcost"
	ColumnAdjVolume = "adjvolume"
)

// FeatureValues flattens a feature table into long-format values.
// Preprocessing columns are included; adjvolume only when the series carries volume.
func FeatureValues(table *domain.FeatureTable) []*domain.FeatureValue {
	hasVolume := false
	for _, r := range table.Records {
		if r.AdjVolume != nil {
			hasVolume = true
			break
		}
	}

	var out []*domain.FeatureValue
	for _, r := range table.Records {
		add := func(name string, v *float64) {
			out = append(out, &domain.FeatureValue{
				InstrumentID: table.InstrumentID,
				Date:         r.Date,
				Feature:      name,
				Value:        v,
			})
		}
		add(ColumnReturn, r.Return)
		add(ColumnTCost, r.TCost)
		if hasVolume {
			add(ColumnAdjVolume, r.AdjVolume)
		}
		for _, name := range table.Names {
			add(name, r.Features[name])
		}
	}
	return out
}

// validateReplace checks that every item belongs to instrumentID and keys are unique.
func validateReplace[T any](instrumentID string, items []T, key func(T) (string, string)) error {
	if instrumentID == "" {
		return ErrInvalidInput
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		id, k := key(it)
		if id != instrumentID {
			return fmt.Errorf("%w: record for %q in replace of %q", ErrInvalidInput, id, instrumentID)
		}
		if _, dup := seen[k]; dup {
			return ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}
	return nil
}

// ValidateAdjusted checks a Replace batch of adjusted records.
func ValidateAdjusted(instrumentID string, records []*domain.AdjustedRecord) error {
	for _, r := range records {
		if r == nil {
			return ErrInvalidInput
		}
	}
	return validateReplace(instrumentID, records, func(r *domain.AdjustedRecord) (string, string) {
		return r.InstrumentID, r.Date.Format(domain.DateLayout)
	})
}

// ValidateFeatureValues checks a Replace batch of feature values.
func ValidateFeatureValues(instrumentID string, values []*domain.FeatureValue) error {
	for _, v := range values {
		if v == nil || v.Feature == "" {
			return ErrInvalidInput
		}
	}
	return validateReplace(instrumentID, values, func(v *domain.FeatureValue) (string, string) {
		return v.InstrumentID, v.Date.Format(domain.DateLayout) + "|" + v.Feature
	})
}

// SortFeatureValues orders values by date, then feature name.
func SortFeatureValues(values []*domain.FeatureValue) {
	sort.Slice(values, func(i, j int) bool {
		if !values[i].Date.Equal(values[j].Date) {
			return values[i].Date.Before(values[j].Date)
		}
		return values[i].Feature < values[j].Feature
	})
}
