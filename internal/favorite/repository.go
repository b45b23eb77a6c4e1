// AngelaMos | 2026
// repository.go

package favorite

import (
	"context"
	"fmt"
	"time"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/listing"
)

type Favorite struct {
	ID          int64     `db:"id"`
	UserID      string    `db:"user_id"`
	ListingID   int64     `db:"listing_id"`
	CreatedDate time.Time `db:"created_date"`
}

type Repository interface {
	Add(ctx context.Context, userID string, listingID int64) error
	Remove(ctx context.Context, userID string, listingID int64) error
	Exists(ctx context.Context, userID string, listingID int64) (bool, error)
	ListListings(
		ctx context.Context,
		userID string,
		page, pageSize int,
	) ([]listing.Listing, int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Add(
	ctx context.Context,
	userID string,
	listingID int64,
) error {
	query := `
		INSERT INTO favorites (user_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, listing_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, userID, listingID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("add favorite: %w", core.ErrDuplicateKey)
	}

	return nil
}

func (r *repository) Remove(
	ctx context.Context,
	userID string,
	listingID int64,
) error {
	query := `DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, listingID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("remove favorite: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Exists(
	ctx context.Context,
	userID string,
	listingID int64,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM favorites WHERE user_id = $1 AND listing_id = $2
		)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, listingID)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}

	return exists, nil
}

func (r *repository) ListListings(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]listing.Listing, int, error) {
	countQuery := `SELECT COUNT(*) FROM favorites WHERE user_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count favorites: %w", err)
	}

	query := `
		SELECT l.id, l.vin, l.title, l.slug, l.price, l.description,
		       l.model, l.model_year, l.variant, l.mileage, l.vehicle_type,
		       l.featured_as, l.g_map_location, l.featured_image,
		       l.publish_status, l.user_id, l.brand_id, l.location_id,
		       l.community_id, l.created_date, l.updated_date
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.user_id = $1
		ORDER BY f.created_date DESC, f.id DESC
		LIMIT $2 OFFSET $3`

	var listings []listing.Listing
	err := r.db.SelectContext(ctx, &listings, query,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorites: %w", err)
	}

	return listings, total, nil
}
