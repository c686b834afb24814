package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/lib/pq"
)

// Column order of the government CSV files. Neither file carries a
// header row.
var ppDataColumns = []string{
	"transaction_unique_identifier", "price", "date_of_transfer",
	"postcode", "property_type", "new_build_flag", "tenure_type",
	"primary_addressable_object_name", "secondary_addressable_object_name",
	"street", "locality", "town_city", "district", "county",
	"ppd_category_type", "record_status",
}

var postcodeDataColumns = []string{
	"postcode", "status", "usertype", "easting", "northing",
	"positional_quality_indicator", "country", "latitude", "longitude",
	"postcode_no_space", "postcode_fixed_width_seven",
	"postcode_fixed_width_eight", "postcode_area", "postcode_district",
	"postcode_sector", "outcode", "incode",
}

// LoadPricePaidCSV bulk-loads a yearly price-paid file into pp_data
// and returns the number of rows inserted.
func (r *PriceStoreRepository) LoadPricePaidCSV(ctx context.Context, path string) (int64, error) {
	return r.copyCSV(ctx, path, "pp_data", ppDataColumns, nil)
}

// LoadPostcodeCSV bulk-loads the postcode coordinates file into
// postcode_data. Rows without coordinates (terminated postcodes) are
// skipped, since they can never join to a price record usefully.
func (r *PriceStoreRepository) LoadPostcodeCSV(ctx context.Context, path string) (int64, error) {
	hasCoordinates := func(row []string) bool {
		lat, lon := row[7], row[8]
		return lat != "" && lat != `\N` && lon != "" && lon != `\N`
	}
	return r.copyCSV(ctx, path, "postcode_data", postcodeDataColumns, hasCoordinates)
}

func (r *PriceStoreRepository) copyCSV(ctx context.Context, path, table string, columns []string, keep func([]string) bool) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(columns)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare copy into %s: %w", table, err)
	}

	var count int64
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read %s: %w", path, err)
		}
		if keep != nil && !keep(row) {
			continue
		}
		args := make([]interface{}, len(row))
		for i, field := range row {
			args[i] = field
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("failed to copy row into %s: %w", table, err)
		}
		count++
	}

	// Final Exec flushes the buffered copy data.
	if _, err := stmt.ExecContext(ctx); err != nil {
		return 0, fmt.Errorf("failed to flush copy into %s: %w", table, err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("failed to close copy statement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit copy into %s: %w", table, err)
	}
	return count, nil
}
