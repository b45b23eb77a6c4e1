// AngelaMos | 2026
// repository.go

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imotor-app/marketplace-api/internal/core"
)

type Repository interface {
	CreateBrand(ctx context.Context, b *Brand) error
	ListBrands(ctx context.Context, vehicleType string) ([]Brand, error)
	UpdateBrand(ctx context.Context, b *Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	CreateLocation(ctx context.Context, l *Location) error
	ListLocations(ctx context.Context) ([]Location, error)
	UpdateLocation(ctx context.Context, l *Location) error
	DeleteLocation(ctx context.Context, id int64) error

	CreateCommunity(ctx context.Context, c *Community) error
	ListCommunities(ctx context.Context, locationID int64) ([]Community, error)
	UpdateCommunity(ctx context.Context, c *Community) error
	DeleteCommunity(ctx context.Context, id int64) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBrand(ctx context.Context, b *Brand) error {
	query := `
		INSERT INTO brands (name, type, image)
		VALUES ($1, $2, $3)
		RETURNING id, created_date`

	err := r.db.QueryRowxContext(ctx, query, b.Name, b.Type, b.Image).
		Scan(&b.ID, &b.CreatedDate)
	if err != nil {
		return fmt.Errorf("create brand: %w", err)
	}

	return nil
}

func (r *repository) ListBrands(
	ctx context.Context,
	vehicleType string,
) ([]Brand, error) {
	query := `
		SELECT id, name, type, image, created_date, updated_date
		FROM brands`
	args := []any{}

	if vehicleType != "" {
		query += ` WHERE type = $1`
		args = append(args, vehicleType)
	}
	query += ` ORDER BY name ASC`

	var brands []Brand
	if err := r.db.SelectContext(ctx, &brands, query, args...); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}

	return brands, nil
}

func (r *repository) UpdateBrand(ctx context.Context, b *Brand) error {
	query := `
		UPDATE brands
		SET name = $2, type = $3, image = $4, updated_date = NOW()
		WHERE id = $1
		RETURNING updated_date`

	err := r.db.GetContext(ctx, &b.UpdatedDate, query,
		b.ID, b.Name, b.Type, b.Image,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update brand: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}

	return nil
}

func (r *repository) DeleteBrand(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "brands", "delete brand", id)
}

func (r *repository) CreateLocation(ctx context.Context, l *Location) error {
	query := `
		INSERT INTO locations (name, image)
		VALUES ($1, $2)
		RETURNING id, created_date`

	err := r.db.QueryRowxContext(ctx, query, l.Name, l.Image).
		Scan(&l.ID, &l.CreatedDate)
	if err != nil {
		return fmt.Errorf("create location: %w", err)
	}

	return nil
}

func (r *repository) ListLocations(ctx context.Context) ([]Location, error) {
	query := `
		SELECT id, name, image, created_date, updated_date
		FROM locations
		ORDER BY name ASC`

	var locations []Location
	if err := r.db.SelectContext(ctx, &locations, query); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	return locations, nil
}

func (r *repository) UpdateLocation(ctx context.Context, l *Location) error {
	query := `
		UPDATE locations
		SET name = $2, image = $3, updated_date = NOW()
		WHERE id = $1
		RETURNING updated_date`

	err := r.db.GetContext(ctx, &l.UpdatedDate, query, l.ID, l.Name, l.Image)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update location: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update location: %w", err)
	}

	return nil
}

func (r *repository) DeleteLocation(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "locations", "delete location", id)
}

func (r *repository) CreateCommunity(ctx context.Context, c *Community) error {
	query := `
		INSERT INTO communities (name, image, location_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_date`

	err := r.db.QueryRowxContext(ctx, query, c.Name, c.Image, c.LocationID).
		Scan(&c.ID, &c.CreatedDate)
	if err != nil {
		return fmt.Errorf("create community: %w", err)
	}

	return nil
}

func (r *repository) ListCommunities(
	ctx context.Context,
	locationID int64,
) ([]Community, error) {
	query := `
		SELECT id, name, image, location_id, created_date, updated_date
		FROM communities`
	args := []any{}

	if locationID > 0 {
		query += ` WHERE location_id = $1`
		args = append(args, locationID)
	}
	query += ` ORDER BY name ASC`

	var communities []Community
	err := r.db.SelectContext(ctx, &communities, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list communities: %w", err)
	}

	return communities, nil
}

func (r *repository) UpdateCommunity(ctx context.Context, c *Community) error {
	query := `
		UPDATE communities
		SET name = $2, image = $3, location_id = $4, updated_date = NOW()
		WHERE id = $1
		RETURNING updated_date`

	err := r.db.GetContext(ctx, &c.UpdatedDate, query,
		c.ID, c.Name, c.Image, c.LocationID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update community: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update community: %w", err)
	}

	return nil
}

func (r *repository) DeleteCommunity(ctx context.Context, id int64) error {
	return r.deleteRow(ctx, "communities", "delete community", id)
}

func (r *repository) deleteRow(
	ctx context.Context,
	table, op string,
	id int64,
) error {
	//nolint:gosec // G201: table name is a compile-time constant
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
