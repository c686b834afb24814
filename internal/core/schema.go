package core

import (
	"fmt"
	"time"

	"price_service/internal/domain/model"
)

// Rule checks one column of a record. Check returns the value it
// inspected and whether the record satisfies the rule.
type Rule struct {
	Column     string
	Constraint string
	Check      func(model.PriceRecord) (interface{}, bool)
}

// Schema is a validation ruleset for a frame of price records. It is a
// plain value so callers and tests can construct alternates; nothing in
// this package holds a package-level schema.
type Schema struct {
	Rules []Rule
	// UniqueRowID additionally rejects frames with duplicate row ids.
	UniqueRowID bool
}

// Validate checks every rule against every record, column by column,
// and fails on the first violation with a SchemaError naming the
// column, the offending value and the constraint. A frame is accepted
// whole or rejected whole.
func (s Schema) Validate(records []model.PriceRecord) error {
	for _, rule := range s.Rules {
		for _, rec := range records {
			if value, ok := rule.Check(rec); !ok {
				return &model.SchemaError{
					Column:     rule.Column,
					Value:      value,
					Constraint: rule.Constraint,
				}
			}
		}
	}
	if s.UniqueRowID {
		seen := make(map[int64]struct{}, len(records))
		for _, rec := range records {
			if _, dup := seen[rec.RowID]; dup {
				return &model.SchemaError{
					Column:     "db_id",
					Value:      rec.RowID,
					Constraint: "unique",
				}
			}
			seen[rec.RowID] = struct{}{}
		}
	}
	return nil
}

// DefaultPriceSchema returns the ruleset for the joined price-paid /
// postcode dataset.
func DefaultPriceSchema() Schema {
	minDate := time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxDate := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	return Schema{
		Rules: []Rule{
			{
				Column:     "price",
				Constraint: "in range [0, 1e9)",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.Price, r.Price >= 0 && r.Price < 1_000_000_000
				},
			},
			{
				Column:     "date_of_transfer",
				Constraint: "in range [2018-01-01, 2023-01-01)",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					d := r.DateOfTransfer
					return d.Format("2006-01-02"), !d.Before(minDate) && d.Before(maxDate)
				},
			},
			{
				Column:     "postcode",
				Constraint: "length at most 8",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.Postcode, len(r.Postcode) <= 8
				},
			},
			oneOfRule("property_type", func(r model.PriceRecord) string { return r.PropertyType },
				model.PropertyTypeFlat, model.PropertyTypeSemiDetached,
				model.PropertyTypeDetached, model.PropertyTypeTerraced,
				model.PropertyTypeOther),
			oneOfRule("new_build_flag", func(r model.PriceRecord) string { return r.NewBuildFlag }, "Y", "N"),
			oneOfRule("tenure_type", func(r model.PriceRecord) string { return r.TenureType }, "F", "L"),
			{
				Column:     "town_city",
				Constraint: "non-empty",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.TownCity, r.TownCity != ""
				},
			},
			{
				Column:     "country",
				Constraint: "non-empty",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.Country, r.Country != ""
				},
			},
			{
				Column:     "latitude",
				Constraint: "in range [49, 61]",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.Latitude, r.Latitude >= 49 && r.Latitude <= 61
				},
			},
			{
				Column:     "longitude",
				Constraint: "in range [-8, 2]",
				Check: func(r model.PriceRecord) (interface{}, bool) {
					return r.Longitude, r.Longitude >= -8 && r.Longitude <= 2
				},
			},
		},
		UniqueRowID: true,
	}
}

func oneOfRule(column string, get func(model.PriceRecord) string, allowed ...string) Rule {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return Rule{
		Column:     column,
		Constraint: fmt.Sprintf("one of %v", allowed),
		Check: func(r model.PriceRecord) (interface{}, bool) {
			v := get(r)
			_, ok := set[v]
			return v, ok
		},
	}
}
