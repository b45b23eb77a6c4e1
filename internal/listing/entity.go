// AngelaMos | 2026
// entity.go

package listing

import (
	"time"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

// Publish statuses. Demoted listings stay in the database with their
// images and attributes; they are just not publicly visible.
const (
	StatusInReview  = 0
	StatusPublished = 1
	StatusDemoted   = 2
)

const (
	VehicleCar          = "car"
	VehicleMotorcycle   = "motorcycle"
	VehicleBoat         = "boat"
	VehicleHeavyVehicle = "heavy_vehicle"
)

var VehicleTypes = []string{
	VehicleCar,
	VehicleMotorcycle,
	VehicleBoat,
	VehicleHeavyVehicle,
}

func ValidVehicleType(s string) bool {
	for _, vt := range VehicleTypes {
		if s == vt {
			return true
		}
	}
	return false
}

// Listing is the common row shared by all vehicle types. FeaturedAs is the
// entitlement tier and is immutable after creation; CreatedDate drives
// oldest-first demotion ordering.
type Listing struct {
	ID            int64     `db:"id"`
	VIN           string    `db:"vin"`
	Title         string    `db:"title"`
	Slug          string    `db:"slug"`
	Price         string    `db:"price"`
	Description   string    `db:"description"`
	Model         string    `db:"model"`
	ModelYear     string    `db:"model_year"`
	Variant       string    `db:"variant"`
	Mileage       string    `db:"mileage"`
	VehicleType   string    `db:"vehicle_type"`
	FeaturedAs    string    `db:"featured_as"`
	GMapLocation  string    `db:"g_map_location"`
	FeaturedImage string    `db:"featured_image"`
	PublishStatus int       `db:"publish_status"`
	UserID        string    `db:"user_id"`
	BrandID       int64     `db:"brand_id"`
	LocationID    int64     `db:"location_id"`
	CommunityID   int64     `db:"community_id"`
	CreatedDate   time.Time `db:"created_date"`
	UpdatedDate   *time.Time `db:"updated_date"`
}

func (l *Listing) Tier() entitlement.Tier {
	t, _ := entitlement.ParseTier(l.FeaturedAs)
	return t
}

func (l *Listing) IsLive() bool {
	return l.PublishStatus == StatusInReview ||
		l.PublishStatus == StatusPublished
}

type CarDetails struct {
	ID               int64  `db:"id"`
	ListingID        int64  `db:"listing_id"`
	FuelType         string `db:"fuel_type"`
	ExteriorColor    string `db:"exterior_color"`
	InteriorColor    string `db:"interior_color"`
	Warranty         string `db:"warranty"`
	Doors            string `db:"doors"`
	NoOfCylinders    string `db:"no_of_cylinders"`
	TransmissionType string `db:"transmission_type"`
	BodyType         string `db:"body_type"`
	SeatingCapacity  string `db:"seating_capacity"`
	HorsePower       string `db:"horse_power"`
	EngineCapacity   string `db:"engine_capacity"`
	SteeringHand     string `db:"steering_hand"`
	Trim             string `db:"trim"`
	Insured          string `db:"insured"`
	RegionalSpec     string `db:"regional_spec"`
}

type MotorcycleDetails struct {
	ID               int64  `db:"id"`
	ListingID        int64  `db:"listing_id"`
	Type             string `db:"type"`
	Usage            string `db:"usage"`
	Warranty         string `db:"warranty"`
	Wheels           string `db:"wheels"`
	SellerType       string `db:"seller_type"`
	FinalDriveSystem string `db:"final_drive_system"`
	EngineSize       string `db:"engine_size"`
}

type BoatDetails struct {
	ID         int64  `db:"id"`
	ListingID  int64  `db:"listing_id"`
	Type1      string `db:"type_1"`
	Type2      string `db:"type_2"`
	Usage      string `db:"usage"`
	Warranty   string `db:"warranty"`
	Age        string `db:"age"`
	SellerType string `db:"seller_type"`
	Length     string `db:"length"`
	Condition  string `db:"condition"`
}

type HeavyVehicleDetails struct {
	ID                  int64  `db:"id"`
	ListingID           int64  `db:"listing_id"`
	Type1               string `db:"type_1"`
	Type2               string `db:"type_2"`
	FuelType            string `db:"fuel_type"`
	NoOfCylinders       string `db:"no_of_cylinders"`
	BodyCondition       string `db:"body_condition"`
	MechanicalCondition string `db:"mechanical_condition"`
	CapacityWeight      string `db:"capacity_weight"`
	HorsePower          string `db:"horse_power"`
}

type Image struct {
	ID        int64  `db:"id"`
	ListingID int64  `db:"listing_id"`
	Image     string `db:"image"`
}

type SafetyFeature struct {
	ID        int64  `db:"id"`
	ListingID int64  `db:"listing_id"`
	Name      string `db:"name"`
}

type Amenity struct {
	ID        int64  `db:"id"`
	ListingID int64  `db:"listing_id"`
	Name      string `db:"name"`
}

// Details bundles a listing with its type-specific attribute row and
// child collections for single-listing views.
type Details struct {
	Listing        Listing
	Car            *CarDetails
	Motorcycle     *MotorcycleDetails
	Boat           *BoatDetails
	HeavyVehicle   *HeavyVehicleDetails
	Images         []Image
	SafetyFeatures []SafetyFeature
	Amenities      []Amenity
}
