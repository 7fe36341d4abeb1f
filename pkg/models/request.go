package models

// PredictionRequest is the body of POST /predict. Pointer fields let the
// binding tell a missing field from a zero value.
type PredictionRequest struct {
	ModelKey                *string  `json:"model_key" binding:"required" example:"Volkswagen"`
	Mileage                 *float64 `json:"mileage" binding:"required" example:"17500"`
	EnginePower             *float64 `json:"engine_power" binding:"required" example:"190"`
	Fuel                    *string  `json:"fuel" binding:"required" example:"diesel"`
	PaintColor              *string  `json:"paint_color" binding:"required" example:"black"`
	CarType                 *string  `json:"car_type" binding:"required" example:"convertible"`
	PrivateParkingAvailable *bool    `json:"private_parking_available" binding:"required" example:"true"`
	HasGPS                  *bool    `json:"has_gps" binding:"required" example:"true"`
	HasAirConditioning      *bool    `json:"has_air_conditioning" binding:"required" example:"true"`
	AutomaticCar            *bool    `json:"automatic_car" binding:"required" example:"true"`
	HasGetaroundConnect     *bool    `json:"has_getaround_connect" binding:"required" example:"true"`
	HasSpeedRegulator       *bool    `json:"has_speed_regulator" binding:"required" example:"true"`
	WinterTires             *bool    `json:"winter_tires" binding:"required" example:"true"`
}

// ToFeatures dereferences the request. Nil fields become zero values, so
// callers should bind first.
func (r PredictionRequest) ToFeatures() CarFeatures {
	return CarFeatures{
		ModelKey:                str(r.ModelKey),
		Mileage:                 num(r.Mileage),
		EnginePower:             num(r.EnginePower),
		Fuel:                    str(r.Fuel),
		PaintColor:              str(r.PaintColor),
		CarType:                 str(r.CarType),
		PrivateParkingAvailable: flag(r.PrivateParkingAvailable),
		HasGPS:                  flag(r.HasGPS),
		HasAirConditioning:      flag(r.HasAirConditioning),
		AutomaticCar:            flag(r.AutomaticCar),
		HasGetaroundConnect:     flag(r.HasGetaroundConnect),
		HasSpeedRegulator:       flag(r.HasSpeedRegulator),
		WinterTires:             flag(r.WinterTires),
	}
}

// NewPredictionRequest builds a complete request from features.
func NewPredictionRequest(f CarFeatures) PredictionRequest {
	return PredictionRequest{
		ModelKey:                &f.ModelKey,
		Mileage:                 &f.Mileage,
		EnginePower:             &f.EnginePower,
		Fuel:                    &f.Fuel,
		PaintColor:              &f.PaintColor,
		CarType:                 &f.CarType,
		PrivateParkingAvailable: &f.PrivateParkingAvailable,
		HasGPS:                  &f.HasGPS,
		HasAirConditioning:      &f.HasAirConditioning,
		AutomaticCar:            &f.AutomaticCar,
		HasGetaroundConnect:     &f.HasGetaroundConnect,
		HasSpeedRegulator:       &f.HasSpeedRegulator,
		WinterTires:             &f.WinterTires,
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func flag(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
