// AngelaMos | 2026
// repository.go

package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

type Repository interface {
	Create(ctx context.Context, d *Details) error
	GetByID(ctx context.Context, id int64) (*Details, error)
	GetListing(ctx context.Context, id int64) (*Listing, error)
	Update(ctx context.Context, l *Listing) error
	UpdatePublishStatus(ctx context.Context, id int64, status int) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params ListParams) ([]Listing, int, error)
	Images(ctx context.Context, listingID int64) ([]Image, error)
	AddImage(ctx context.Context, img *Image) error
	DeleteImage(ctx context.Context, listingID, imageID int64) error
	OldestLiveIDs(
		ctx context.Context,
		userID string,
		t entitlement.Tier,
		limit int,
	) ([]int64, error)
	DemoteByIDs(ctx context.Context, ids []int64) (int, error)
}

type repository struct {
	db core.DBTX
}

// NewRepository works over a pool or an open transaction; demotion and
// gated creates run it against a *sqlx.Tx.
func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const listingColumns = `
	id, vin, title, slug, price, description, model, model_year, variant,
	mileage, vehicle_type, featured_as, g_map_location, featured_image,
	publish_status, user_id, brand_id, location_id, community_id,
	created_date, updated_date`

func (r *repository) Create(ctx context.Context, d *Details) error {
	l := &d.Listing

	query := `
		INSERT INTO listings (
			vin, title, slug, price, description, model, model_year,
			variant, mileage, vehicle_type, featured_as, g_map_location,
			featured_image, publish_status, user_id, brand_id,
			location_id, community_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18)
		RETURNING id, created_date`

	err := r.db.QueryRowxContext(ctx, query,
		l.VIN, l.Title, l.Slug, l.Price, l.Description, l.Model,
		l.ModelYear, l.Variant, l.Mileage, l.VehicleType, l.FeaturedAs,
		l.GMapLocation, l.FeaturedImage, l.PublishStatus, l.UserID,
		l.BrandID, l.LocationID, l.CommunityID,
	).Scan(&l.ID, &l.CreatedDate)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create listing: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create listing: %w", err)
	}

	if err := r.createDetails(ctx, d); err != nil {
		return err
	}

	for _, name := range dedupeNames(safetyFeatureNames(d.SafetyFeatures)) {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO safety_features (listing_id, name) VALUES ($1, $2)`,
			l.ID, name,
		); err != nil {
			return fmt.Errorf("create safety feature: %w", err)
		}
	}

	for _, name := range dedupeNames(amenityNames(d.Amenities)) {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO listing_amenities (listing_id, name) VALUES ($1, $2)`,
			l.ID, name,
		); err != nil {
			return fmt.Errorf("create amenity: %w", err)
		}
	}

	return nil
}

func (r *repository) createDetails(ctx context.Context, d *Details) error {
	switch {
	case d.Car != nil:
		d.Car.ListingID = d.Listing.ID
		query := `
			INSERT INTO cars (
				listing_id, fuel_type, exterior_color, interior_color,
				warranty, doors, no_of_cylinders, transmission_type,
				body_type, seating_capacity, horse_power, engine_capacity,
				steering_hand, trim, insured, regional_spec
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			        $13, $14, $15, $16)
			RETURNING id`
		c := d.Car
		return scanDetailID(r.db.QueryRowxContext(ctx, query,
			c.ListingID, c.FuelType, c.ExteriorColor, c.InteriorColor,
			c.Warranty, c.Doors, c.NoOfCylinders, c.TransmissionType,
			c.BodyType, c.SeatingCapacity, c.HorsePower, c.EngineCapacity,
			c.SteeringHand, c.Trim, c.Insured, c.RegionalSpec,
		).Scan(&c.ID), "car")

	case d.Motorcycle != nil:
		d.Motorcycle.ListingID = d.Listing.ID
		query := `
			INSERT INTO motorcycles (
				listing_id, type, usage, warranty, wheels, seller_type,
				final_drive_system, engine_size
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`
		m := d.Motorcycle
		return scanDetailID(r.db.QueryRowxContext(ctx, query,
			m.ListingID, m.Type, m.Usage, m.Warranty, m.Wheels,
			m.SellerType, m.FinalDriveSystem, m.EngineSize,
		).Scan(&m.ID), "motorcycle")

	case d.Boat != nil:
		d.Boat.ListingID = d.Listing.ID
		query := `
			INSERT INTO boats (
				listing_id, type_1, type_2, usage, warranty, age,
				seller_type, length, condition
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		b := d.Boat
		return scanDetailID(r.db.QueryRowxContext(ctx, query,
			b.ListingID, b.Type1, b.Type2, b.Usage, b.Warranty, b.Age,
			b.SellerType, b.Length, b.Condition,
		).Scan(&b.ID), "boat")

	case d.HeavyVehicle != nil:
		d.HeavyVehicle.ListingID = d.Listing.ID
		query := `
			INSERT INTO heavy_vehicles (
				listing_id, type_1, type_2, fuel_type, no_of_cylinders,
				body_condition, mechanical_condition, capacity_weight,
				horse_power
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`
		hv := d.HeavyVehicle
		return scanDetailID(r.db.QueryRowxContext(ctx, query,
			hv.ListingID, hv.Type1, hv.Type2, hv.FuelType,
			hv.NoOfCylinders, hv.BodyCondition, hv.MechanicalCondition,
			hv.CapacityWeight, hv.HorsePower,
		).Scan(&hv.ID), "heavy vehicle")
	}

	return nil
}

func scanDetailID(err error, kind string) error {
	if err != nil {
		return fmt.Errorf("create %s details: %w", kind, err)
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Details, error) {
	l, err := r.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &Details{Listing: *l}

	switch l.VehicleType {
	case VehicleCar:
		var c CarDetails
		err = r.getDetail(ctx, &c, `
			SELECT id, listing_id, fuel_type, exterior_color,
			       interior_color, warranty, doors, no_of_cylinders,
			       transmission_type, body_type, seating_capacity,
			       horse_power, engine_capacity, steering_hand, trim,
			       insured, regional_spec
			FROM cars WHERE listing_id = $1`, id)
		if err == nil {
			d.Car = &c
		}
	case VehicleMotorcycle:
		var m MotorcycleDetails
		err = r.getDetail(ctx, &m, `
			SELECT id, listing_id, type, usage, warranty, wheels,
			       seller_type, final_drive_system, engine_size
			FROM motorcycles WHERE listing_id = $1`, id)
		if err == nil {
			d.Motorcycle = &m
		}
	case VehicleBoat:
		var b BoatDetails
		err = r.getDetail(ctx, &b, `
			SELECT id, listing_id, type_1, type_2, usage, warranty, age,
			       seller_type, length, condition
			FROM boats WHERE listing_id = $1`, id)
		if err == nil {
			d.Boat = &b
		}
	case VehicleHeavyVehicle:
		var hv HeavyVehicleDetails
		err = r.getDetail(ctx, &hv, `
			SELECT id, listing_id, type_1, type_2, fuel_type,
			       no_of_cylinders, body_condition, mechanical_condition,
			       capacity_weight, horse_power
			FROM heavy_vehicles WHERE listing_id = $1`, id)
		if err == nil {
			d.HeavyVehicle = &hv
		}
	}
	if err != nil {
		return nil, err
	}

	if d.Images, err = r.Images(ctx, id); err != nil {
		return nil, err
	}

	query := `
		SELECT id, listing_id, name
		FROM safety_features
		WHERE listing_id = $1
		ORDER BY id`
	if err = r.db.SelectContext(ctx, &d.SafetyFeatures, query, id); err != nil {
		return nil, fmt.Errorf("get safety features: %w", err)
	}

	query = `
		SELECT id, listing_id, name
		FROM listing_amenities
		WHERE listing_id = $1
		ORDER BY id`
	if err = r.db.SelectContext(ctx, &d.Amenities, query, id); err != nil {
		return nil, fmt.Errorf("get amenities: %w", err)
	}

	return d, nil
}

// getDetail tolerates a missing attribute row: older listings may predate
// the detail tables.
func (r *repository) getDetail(
	ctx context.Context,
	dest any,
	query string,
	id int64,
) error {
	err := r.db.GetContext(ctx, dest, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("get listing details: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get listing details: %w", err)
	}
	return nil
}

func (r *repository) GetListing(
	ctx context.Context,
	id int64,
) (*Listing, error) {
	query := `
		SELECT` + listingColumns + `
		FROM listings
		WHERE id = $1`

	var l Listing
	err := r.db.GetContext(ctx, &l, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}

	return &l, nil
}

func (r *repository) Update(ctx context.Context, l *Listing) error {
	query := `
		UPDATE listings
		SET title = $2, price = $3, description = $4, model = $5,
		    model_year = $6, variant = $7, mileage = $8,
		    g_map_location = $9, featured_image = $10,
		    updated_date = NOW()
		WHERE id = $1
		RETURNING updated_date`

	err := r.db.GetContext(ctx, &l.UpdatedDate, query,
		l.ID, l.Title, l.Price, l.Description, l.Model, l.ModelYear,
		l.Variant, l.Mileage, l.GMapLocation, l.FeaturedImage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update listing: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update listing: %w", err)
	}

	return nil
}

func (r *repository) UpdatePublishStatus(
	ctx context.Context,
	id int64,
	status int,
) error {
	query := `
		UPDATE listings
		SET publish_status = $2, updated_date = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update publish status: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update publish status: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM listings WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete listing: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListParams,
) ([]Listing, int, error) {
	normalizeListParams(&params)

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.VehicleType != "" {
		conditions = append(conditions,
			fmt.Sprintf("vehicle_type = $%d", argIdx))
		args = append(args, params.VehicleType)
		argIdx++
	}

	if params.PublishStatus != nil {
		conditions = append(conditions,
			fmt.Sprintf("publish_status = $%d", argIdx))
		args = append(args, *params.PublishStatus)
		argIdx++
	}

	if params.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, params.UserID)
		argIdx++
	}

	if params.BrandID > 0 {
		conditions = append(conditions, fmt.Sprintf("brand_id = $%d", argIdx))
		args = append(args, params.BrandID)
		argIdx++
	}

	if params.LocationID > 0 {
		conditions = append(conditions,
			fmt.Sprintf("location_id = $%d", argIdx))
		args = append(args, params.LocationID)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR model ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM listings WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count listings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT`+listingColumns+`
		FROM listings
		WHERE %s
		ORDER BY created_date DESC, id DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)

	var listings []Listing
	if err := r.db.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list listings: %w", err)
	}

	return listings, total, nil
}

func (r *repository) Images(
	ctx context.Context,
	listingID int64,
) ([]Image, error) {
	query := `
		SELECT id, listing_id, image
		FROM listing_images
		WHERE listing_id = $1
		ORDER BY id`

	var images []Image
	if err := r.db.SelectContext(ctx, &images, query, listingID); err != nil {
		return nil, fmt.Errorf("get listing images: %w", err)
	}

	return images, nil
}

func (r *repository) AddImage(ctx context.Context, img *Image) error {
	query := `
		INSERT INTO listing_images (listing_id, image)
		VALUES ($1, $2)
		RETURNING id`

	err := r.db.QueryRowxContext(ctx, query, img.ListingID, img.Image).
		Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("add listing image: %w", err)
	}

	return nil
}

func (r *repository) DeleteImage(
	ctx context.Context,
	listingID, imageID int64,
) error {
	query := `DELETE FROM listing_images WHERE id = $1 AND listing_id = $2`

	result, err := r.db.ExecContext(ctx, query, imageID, listingID)
	if err != nil {
		return fmt.Errorf("delete listing image: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete listing image: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete listing image: %w", core.ErrNotFound)
	}

	return nil
}

// OldestLiveIDs returns the ids of the user's oldest in-review or
// published listings of a tier, oldest created_date first with id as the
// tiebreak.
func (r *repository) OldestLiveIDs(
	ctx context.Context,
	userID string,
	t entitlement.Tier,
	limit int,
) ([]int64, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `
		SELECT id
		FROM listings
		WHERE user_id = $1
		  AND featured_as = $2
		  AND publish_status IN ($3, $4)
		ORDER BY created_date ASC, id ASC
		LIMIT $5`

	var ids []int64
	err := r.db.SelectContext(ctx, &ids, query,
		userID, string(t), StatusInReview, StatusPublished, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select oldest listings: %w", err)
	}

	return ids, nil
}

// DemoteByIDs flips each listing to the demoted status one at a time.
// Rows that vanished since the plan was computed are skipped, not errors.
func (r *repository) DemoteByIDs(
	ctx context.Context,
	ids []int64,
) (int, error) {
	query := `
		UPDATE listings
		SET publish_status = $2, updated_date = NOW()
		WHERE id = $1 AND publish_status != $2`

	demoted := 0
	for _, id := range ids {
		result, err := r.db.ExecContext(ctx, query, id, StatusDemoted)
		if err != nil {
			return demoted, fmt.Errorf("demote listing %d: %w", id, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return demoted, fmt.Errorf("demote listing %d: %w", id, err)
		}
		if rows > 0 {
			demoted++
		}
	}

	return demoted, nil
}

func normalizeListParams(p *ListParams) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func safetyFeatureNames(features []SafetyFeature) []string {
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.Name)
	}
	return names
}

func amenityNames(amenities []Amenity) []string {
	names := make([]string, 0, len(amenities))
	for _, a := range amenities {
		names = append(names, a.Name)
	}
	return names
}

func dedupeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0]
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
