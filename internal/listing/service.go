// AngelaMos | 2026
// service.go

package listing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

type Service struct {
	db           *sqlx.DB
	repo         Repository
	entitlements entitlement.Store
	logger       *slog.Logger
}

func NewService(
	db *sqlx.DB,
	repo Repository,
	entitlements entitlement.Store,
	logger *slog.Logger,
) *Service {
	return &Service{
		db:           db,
		repo:         repo,
		entitlements: entitlements,
		logger:       logger,
	}
}

// Create gates the new listing against the owner's tier quota and inserts
// it. The quota check, the insert, and the usage increment share one
// transaction with the entitlement row locked, so a concurrent billing
// event cannot slip a limit change between the check and the count.
func (s *Service) Create(
	ctx context.Context,
	userID, vehicleType string,
	req CreateRequest,
) (*Details, error) {
	if !ValidVehicleType(vehicleType) {
		return nil, fmt.Errorf("create listing: %w", core.ErrInvalidInput)
	}

	tier, ok := entitlement.ParseTier(req.FeaturedAs)
	if !ok {
		return nil, entitlement.ErrNoTier
	}

	d := buildDetails(userID, vehicleType, req)

	err := core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		rec, err := s.entitlements.LoadForUpdate(ctx, tx, userID)
		if err != nil {
			return err
		}

		if err := entitlement.CheckCreate(rec, tier); err != nil {
			return err
		}

		if err := NewRepository(tx).Create(ctx, d); err != nil {
			return err
		}

		return s.entitlements.AdjustUsed(ctx, tx, userID, tier, 1)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "listing created",
		"listing_id", d.Listing.ID,
		"user_id", userID,
		"vehicle_type", vehicleType,
		"tier", string(tier),
	)

	return d, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Details, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListParams,
) ([]Listing, int, error) {
	return s.repo.List(ctx, params)
}

// Update changes mutable listing fields. The tier and vehicle type are
// fixed at creation; changing the tier would dodge the quota gate, so no
// path exists for it.
func (s *Service) Update(
	ctx context.Context,
	userID string,
	id int64,
	req UpdateRequest,
	isAdmin bool,
) (*Listing, error) {
	l, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}

	if l.UserID != userID && !isAdmin {
		return nil, core.ErrForbidden
	}

	applyUpdate(l, req)

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	return l, nil
}

// Delete removes the listing and its child rows, then releases the quota
// slot if the listing was still live. Demoted listings already gave their
// slot back when they were demoted.
func (s *Service) Delete(
	ctx context.Context,
	userID string,
	id int64,
	isAdmin bool,
) error {
	l, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return err
	}

	if l.UserID != userID && !isAdmin {
		return core.ErrForbidden
	}

	err = core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).Delete(ctx, id); err != nil {
			return err
		}

		if !l.IsLive() {
			return nil
		}

		tier, ok := entitlement.ParseTier(l.FeaturedAs)
		if !ok {
			return nil
		}

		return s.entitlements.AdjustUsed(ctx, tx, l.UserID, tier, -1)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "listing deleted",
		"listing_id", id,
		"user_id", l.UserID,
	)

	return nil
}

// SetPublishStatus is the moderation path: approving in-review listings,
// pulling published ones, and restoring pulled ones. Usage counters track
// live listings only, so crossing the live/demoted boundary adjusts the
// owner's counter inside the same transaction as the status change.
// Restoring a demoted listing passes through the quota gate; a moderator
// cannot push an owner over their limit.
func (s *Service) SetPublishStatus(
	ctx context.Context,
	id int64,
	status int,
) error {
	l, err := s.repo.GetListing(ctx, id)
	if err != nil {
		return err
	}

	wasLive := l.IsLive()
	willBeLive := status == StatusInReview || status == StatusPublished

	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := NewRepository(tx).UpdatePublishStatus(ctx, id, status); err != nil {
			return err
		}

		if wasLive == willBeLive {
			return nil
		}

		tier, ok := entitlement.ParseTier(l.FeaturedAs)
		if !ok {
			return nil
		}

		if !willBeLive {
			return s.entitlements.AdjustUsed(ctx, tx, l.UserID, tier, -1)
		}

		rec, err := s.entitlements.LoadForUpdate(ctx, tx, l.UserID)
		if err != nil {
			return err
		}
		if err := entitlement.CheckCreate(rec, tier); err != nil {
			return err
		}
		return s.entitlements.AdjustUsed(ctx, tx, l.UserID, tier, 1)
	})
}

func (s *Service) Images(
	ctx context.Context,
	listingID int64,
) ([]Image, error) {
	if _, err := s.repo.GetListing(ctx, listingID); err != nil {
		return nil, err
	}
	return s.repo.Images(ctx, listingID)
}

func (s *Service) AddImage(
	ctx context.Context,
	userID string,
	listingID int64,
	path string,
) (*Image, error) {
	l, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if l.UserID != userID {
		return nil, core.ErrForbidden
	}

	img := &Image{ListingID: listingID, Image: path}
	if err := s.repo.AddImage(ctx, img); err != nil {
		return nil, err
	}

	return img, nil
}

func (s *Service) DeleteImage(
	ctx context.Context,
	userID string,
	listingID, imageID int64,
	isAdmin bool,
) error {
	l, err := s.repo.GetListing(ctx, listingID)
	if err != nil {
		return err
	}
	if l.UserID != userID && !isAdmin {
		return core.ErrForbidden
	}

	return s.repo.DeleteImage(ctx, listingID, imageID)
}

func buildDetails(userID, vehicleType string, req CreateRequest) *Details {
	d := &Details{
		Listing: Listing{
			VIN:           req.VIN,
			Title:         req.Title,
			Slug:          slugify(req.Title),
			Price:         req.Price,
			Description:   req.Description,
			Model:         req.Model,
			ModelYear:     req.ModelYear,
			Variant:       req.Variant,
			Mileage:       req.Mileage,
			VehicleType:   vehicleType,
			FeaturedAs:    req.FeaturedAs,
			GMapLocation:  req.GMapLocation,
			FeaturedImage: req.FeaturedImage,
			PublishStatus: StatusInReview,
			UserID:        userID,
			BrandID:       req.BrandID,
			LocationID:    req.LocationID,
			CommunityID:   req.CommunityID,
		},
	}

	switch vehicleType {
	case VehicleCar:
		if req.Car != nil {
			d.Car = &CarDetails{
				FuelType:         req.Car.FuelType,
				ExteriorColor:    req.Car.ExteriorColor,
				InteriorColor:    req.Car.InteriorColor,
				Warranty:         req.Car.Warranty,
				Doors:            req.Car.Doors,
				NoOfCylinders:    req.Car.NoOfCylinders,
				TransmissionType: req.Car.TransmissionType,
				BodyType:         req.Car.BodyType,
				SeatingCapacity:  req.Car.SeatingCapacity,
				HorsePower:       req.Car.HorsePower,
				EngineCapacity:   req.Car.EngineCapacity,
				SteeringHand:     req.Car.SteeringHand,
				Trim:             req.Car.Trim,
				Insured:          req.Car.Insured,
				RegionalSpec:     req.Car.RegionalSpec,
			}
		}
	case VehicleMotorcycle:
		if req.Motorcycle != nil {
			d.Motorcycle = &MotorcycleDetails{
				Type:             req.Motorcycle.Type,
				Usage:            req.Motorcycle.Usage,
				Warranty:         req.Motorcycle.Warranty,
				Wheels:           req.Motorcycle.Wheels,
				SellerType:       req.Motorcycle.SellerType,
				FinalDriveSystem: req.Motorcycle.FinalDriveSystem,
				EngineSize:       req.Motorcycle.EngineSize,
			}
		}
	case VehicleBoat:
		if req.Boat != nil {
			d.Boat = &BoatDetails{
				Type1:      req.Boat.Type1,
				Type2:      req.Boat.Type2,
				Usage:      req.Boat.Usage,
				Warranty:   req.Boat.Warranty,
				Age:        req.Boat.Age,
				SellerType: req.Boat.SellerType,
				Length:     req.Boat.Length,
				Condition:  req.Boat.Condition,
			}
		}
	case VehicleHeavyVehicle:
		if req.HeavyVehicle != nil {
			d.HeavyVehicle = &HeavyVehicleDetails{
				Type1:               req.HeavyVehicle.Type1,
				Type2:               req.HeavyVehicle.Type2,
				FuelType:            req.HeavyVehicle.FuelType,
				NoOfCylinders:       req.HeavyVehicle.NoOfCylinders,
				BodyCondition:       req.HeavyVehicle.BodyCondition,
				MechanicalCondition: req.HeavyVehicle.MechanicalCondition,
				CapacityWeight:      req.HeavyVehicle.CapacityWeight,
				HorsePower:          req.HeavyVehicle.HorsePower,
			}
		}
	}

	for _, name := range req.SafetyFeatures {
		d.SafetyFeatures = append(d.SafetyFeatures, SafetyFeature{Name: name})
	}
	for _, name := range req.Amenities {
		d.Amenities = append(d.Amenities, Amenity{Name: name})
	}

	return d
}

func applyUpdate(l *Listing, req UpdateRequest) {
	if req.Title != nil {
		l.Title = *req.Title
		l.Slug = slugify(*req.Title)
	}
	if req.Price != nil {
		l.Price = *req.Price
	}
	if req.Description != nil {
		l.Description = *req.Description
	}
	if req.Model != nil {
		l.Model = *req.Model
	}
	if req.ModelYear != nil {
		l.ModelYear = *req.ModelYear
	}
	if req.Variant != nil {
		l.Variant = *req.Variant
	}
	if req.Mileage != nil {
		l.Mileage = *req.Mileage
	}
	if req.GMapLocation != nil {
		l.GMapLocation = *req.GMapLocation
	}
	if req.FeaturedImage != nil {
		l.FeaturedImage = *req.FeaturedImage
	}
}

// slugify lowercases the title, collapses everything non-alphanumeric to
// hyphens, and appends a short random suffix so slugs never collide.
func slugify(title string) string {
	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.TrimSuffix(b.String(), "-")
	suffix := uuid.New().String()[:8]
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}
