// AngelaMos | 2026
// dto.go

package listing

import (
	"time"
)

type CreateRequest struct {
	VIN           string `json:"vin" validate:"required,max=255"`
	Title         string `json:"title" validate:"required,max=255"`
	Price         string `json:"price" validate:"required,max=255"`
	Description   string `json:"description" validate:"max=10000"`
	Model         string `json:"model" validate:"max=255"`
	ModelYear     string `json:"model_year" validate:"max=255"`
	Variant       string `json:"variant" validate:"max=255"`
	Mileage       string `json:"mileage" validate:"max=255"`
	FeaturedAs    string `json:"featured_as" validate:"required"`
	GMapLocation  string `json:"g_map_location" validate:"max=2048"`
	FeaturedImage string `json:"featured_image" validate:"max=2048"`
	BrandID       int64  `json:"brand_id" validate:"required,gt=0"`
	LocationID    int64  `json:"location_id" validate:"required,gt=0"`
	CommunityID   int64  `json:"community_id" validate:"required,gt=0"`

	Car          *CarDetailsRequest          `json:"car,omitempty"`
	Motorcycle   *MotorcycleDetailsRequest   `json:"motorcycle,omitempty"`
	Boat         *BoatDetailsRequest         `json:"boat,omitempty"`
	HeavyVehicle *HeavyVehicleDetailsRequest `json:"heavy_vehicle,omitempty"`

	SafetyFeatures []string `json:"safety_features" validate:"max=50,dive,max=255"`
	Amenities      []string `json:"amenities" validate:"max=50,dive,max=255"`
}

type CarDetailsRequest struct {
	FuelType         string `json:"fuel_type" validate:"max=255"`
	ExteriorColor    string `json:"exterior_color" validate:"max=255"`
	InteriorColor    string `json:"interior_color" validate:"max=255"`
	Warranty         string `json:"warranty" validate:"max=255"`
	Doors            string `json:"doors" validate:"max=255"`
	NoOfCylinders    string `json:"no_of_cylinders" validate:"max=255"`
	TransmissionType string `json:"transmission_type" validate:"max=255"`
	BodyType         string `json:"body_type" validate:"max=255"`
	SeatingCapacity  string `json:"seating_capacity" validate:"max=255"`
	HorsePower       string `json:"horse_power" validate:"max=255"`
	EngineCapacity   string `json:"engine_capacity" validate:"max=255"`
	SteeringHand     string `json:"steering_hand" validate:"max=255"`
	Trim             string `json:"trim" validate:"max=255"`
	Insured          string `json:"insured" validate:"max=255"`
	RegionalSpec     string `json:"regional_spec" validate:"max=255"`
}

type MotorcycleDetailsRequest struct {
	Type             string `json:"type" validate:"max=255"`
	Usage            string `json:"usage" validate:"max=255"`
	Warranty         string `json:"warranty" validate:"max=255"`
	Wheels           string `json:"wheels" validate:"max=255"`
	SellerType       string `json:"seller_type" validate:"max=255"`
	FinalDriveSystem string `json:"final_drive_system" validate:"max=255"`
	EngineSize       string `json:"engine_size" validate:"max=255"`
}

type BoatDetailsRequest struct {
	Type1      string `json:"type_1" validate:"max=255"`
	Type2      string `json:"type_2" validate:"max=255"`
	Usage      string `json:"usage" validate:"max=255"`
	Warranty   string `json:"warranty" validate:"max=255"`
	Age        string `json:"age" validate:"max=255"`
	SellerType string `json:"seller_type" validate:"max=255"`
	Length     string `json:"length" validate:"max=255"`
	Condition  string `json:"condition" validate:"max=255"`
}

type HeavyVehicleDetailsRequest struct {
	Type1               string `json:"type_1" validate:"max=255"`
	Type2               string `json:"type_2" validate:"max=255"`
	FuelType            string `json:"fuel_type" validate:"max=255"`
	NoOfCylinders       string `json:"no_of_cylinders" validate:"max=255"`
	BodyCondition       string `json:"body_condition" validate:"max=255"`
	MechanicalCondition string `json:"mechanical_condition" validate:"max=255"`
	CapacityWeight      string `json:"capacity_weight" validate:"max=255"`
	HorsePower          string `json:"horse_power" validate:"max=255"`
}

type UpdateRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,max=255"`
	Price         *string `json:"price,omitempty" validate:"omitempty,max=255"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=10000"`
	Model         *string `json:"model,omitempty" validate:"omitempty,max=255"`
	ModelYear     *string `json:"model_year,omitempty" validate:"omitempty,max=255"`
	Variant       *string `json:"variant,omitempty" validate:"omitempty,max=255"`
	Mileage       *string `json:"mileage,omitempty" validate:"omitempty,max=255"`
	GMapLocation  *string `json:"g_map_location,omitempty" validate:"omitempty,max=2048"`
	FeaturedImage *string `json:"featured_image,omitempty" validate:"omitempty,max=2048"`
}

type UpdateStatusRequest struct {
	PublishStatus int `json:"publish_status" validate:"gte=0,lte=2"`
}

type ListParams struct {
	VehicleType   string
	PublishStatus *int
	UserID        string
	BrandID       int64
	LocationID    int64
	Search        string
	Page          int
	PageSize      int
}

type Response struct {
	ID            int64      `json:"id"`
	VIN           string     `json:"vin"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Price         string     `json:"price"`
	Description   string     `json:"description"`
	Model         string     `json:"model"`
	ModelYear     string     `json:"model_year"`
	Variant       string     `json:"variant"`
	Mileage       string     `json:"mileage"`
	VehicleType   string     `json:"vehicle_type"`
	FeaturedAs    string     `json:"featured_as"`
	GMapLocation  string     `json:"g_map_location"`
	FeaturedImage string     `json:"featured_image"`
	PublishStatus int        `json:"publish_status"`
	UserID        string     `json:"user_id"`
	BrandID       int64      `json:"brand_id"`
	LocationID    int64      `json:"location_id"`
	CommunityID   int64      `json:"community_id"`
	CreatedDate   time.Time  `json:"created_date"`
	UpdatedDate   *time.Time `json:"updated_date,omitempty"`
}

type DetailsResponse struct {
	Response

	Car          *CarDetails          `json:"car,omitempty"`
	Motorcycle   *MotorcycleDetails   `json:"motorcycle,omitempty"`
	Boat         *BoatDetails         `json:"boat,omitempty"`
	HeavyVehicle *HeavyVehicleDetails `json:"heavy_vehicle,omitempty"`

	Images         []Image         `json:"images"`
	SafetyFeatures []SafetyFeature `json:"safety_features"`
	Amenities      []Amenity       `json:"amenities"`
}

func ToResponse(l *Listing) Response {
	return Response{
		ID:            l.ID,
		VIN:           l.VIN,
		Title:         l.Title,
		Slug:          l.Slug,
		Price:         l.Price,
		Description:   l.Description,
		Model:         l.Model,
		ModelYear:     l.ModelYear,
		Variant:       l.Variant,
		Mileage:       l.Mileage,
		VehicleType:   l.VehicleType,
		FeaturedAs:    l.FeaturedAs,
		GMapLocation:  l.GMapLocation,
		FeaturedImage: l.FeaturedImage,
		PublishStatus: l.PublishStatus,
		UserID:        l.UserID,
		BrandID:       l.BrandID,
		LocationID:    l.LocationID,
		CommunityID:   l.CommunityID,
		CreatedDate:   l.CreatedDate,
		UpdatedDate:   l.UpdatedDate,
	}
}

func ToDetailsResponse(d *Details) DetailsResponse {
	resp := DetailsResponse{
		Response:       ToResponse(&d.Listing),
		Car:            d.Car,
		Motorcycle:     d.Motorcycle,
		Boat:           d.Boat,
		HeavyVehicle:   d.HeavyVehicle,
		Images:         d.Images,
		SafetyFeatures: d.SafetyFeatures,
		Amenities:      d.Amenities,
	}
	if resp.Images == nil {
		resp.Images = []Image{}
	}
	if resp.SafetyFeatures == nil {
		resp.SafetyFeatures = []SafetyFeature{}
	}
	if resp.Amenities == nil {
		resp.Amenities = []Amenity{}
	}
	return resp
}
