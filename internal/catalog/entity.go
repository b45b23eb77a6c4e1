// AngelaMos | 2026
// entity.go

package catalog

import (
	"time"
)

type Brand struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Type        string     `db:"type" json:"type"`
	Image       string     `db:"image" json:"image"`
	CreatedDate time.Time  `db:"created_date" json:"created_date"`
	UpdatedDate *time.Time `db:"updated_date" json:"updated_date,omitempty"`
}

type Location struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Image       string     `db:"image" json:"image"`
	CreatedDate time.Time  `db:"created_date" json:"created_date"`
	UpdatedDate *time.Time `db:"updated_date" json:"updated_date,omitempty"`
}

// Community is a neighbourhood within a location.
type Community struct {
	ID          int64      `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Image       string     `db:"image" json:"image"`
	LocationID  int64      `db:"location_id" json:"location_id"`
	CreatedDate time.Time  `db:"created_date" json:"created_date"`
	UpdatedDate *time.Time `db:"updated_date" json:"updated_date,omitempty"`
}

type BrandRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Type  string `json:"type" validate:"max=255"`
	Image string `json:"image" validate:"max=2048"`
}

type LocationRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Image string `json:"image" validate:"max=2048"`
}

type CommunityRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Image      string `json:"image" validate:"max=2048"`
	LocationID int64  `json:"location_id" validate:"required,gt=0"`
}
