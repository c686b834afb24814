package repository

import (
	"context"
	"fmt"
)

// DDL for the two source tables, Postgres dialect. pp_data holds the
// HM Land Registry price-paid rows, postcode_data the ONS postcode
// coordinates they are joined against.
const ppDataDDL = `
	CREATE TABLE IF NOT EXISTS pp_data (
		transaction_unique_identifier text NOT NULL,
		price bigint NOT NULL,
		date_of_transfer date NOT NULL,
		postcode varchar(8) NOT NULL,
		property_type varchar(1) NOT NULL,
		new_build_flag varchar(1) NOT NULL,
		tenure_type varchar(1) NOT NULL,
		primary_addressable_object_name text NOT NULL DEFAULT '',
		secondary_addressable_object_name text NOT NULL DEFAULT '',
		street text NOT NULL DEFAULT '',
		locality text,
		town_city text NOT NULL DEFAULT '',
		district text,
		county text,
		ppd_category_type varchar(2) NOT NULL DEFAULT '',
		record_status varchar(2) NOT NULL DEFAULT '',
		db_id bigserial PRIMARY KEY
	);
	CREATE INDEX IF NOT EXISTS pp_postcode_idx ON pp_data (postcode);
	CREATE INDEX IF NOT EXISTS pp_date_idx ON pp_data (date_of_transfer);`

const postcodeDataDDL = `
	CREATE TABLE IF NOT EXISTS postcode_data (
		postcode varchar(8) NOT NULL,
		status text NOT NULL,
		usertype text NOT NULL,
		easting bigint,
		northing bigint,
		positional_quality_indicator int NOT NULL,
		country text NOT NULL,
		latitude double precision NOT NULL,
		longitude double precision NOT NULL,
		postcode_no_space text NOT NULL DEFAULT '',
		postcode_fixed_width_seven varchar(7) NOT NULL DEFAULT '',
		postcode_fixed_width_eight varchar(8) NOT NULL DEFAULT '',
		postcode_area varchar(2) NOT NULL DEFAULT '',
		postcode_district varchar(4) NOT NULL DEFAULT '',
		postcode_sector varchar(6) NOT NULL DEFAULT '',
		outcode varchar(4) NOT NULL DEFAULT '',
		incode varchar(3) NOT NULL DEFAULT '',
		db_id bigserial PRIMARY KEY
	);
	CREATE INDEX IF NOT EXISTS pc_postcode_idx ON postcode_data (postcode);`

// InitSchema creates the source tables and their indexes when absent.
func (r *PriceStoreRepository) InitSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, ppDataDDL); err != nil {
		return fmt.Errorf("failed to create pp_data: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, postcodeDataDDL); err != nil {
		return fmt.Errorf("failed to create postcode_data: %w", err)
	}
	return nil
}
