package models

// CarFeatures is one car described the way the pricing pipeline was trained on it.
type CarFeatures struct {
	ModelKey                string  `json:"model_key"`
	Mileage                 float64 `json:"mileage"`
	EnginePower             float64 `json:"engine_power"`
	Fuel                    string  `json:"fuel"`
	PaintColor              string  `json:"paint_color"`
	CarType                 string  `json:"car_type"`
	PrivateParkingAvailable bool    `json:"private_parking_available"`
	HasGPS                  bool    `json:"has_gps"`
	HasAirConditioning      bool    `json:"has_air_conditioning"`
	AutomaticCar            bool    `json:"automatic_car"`
	HasGetaroundConnect     bool    `json:"has_getaround_connect"`
	HasSpeedRegulator       bool    `json:"has_speed_regulator"`
	WinterTires             bool    `json:"winter_tires"`
}

// ExampleFeatures is the reference record shown to callers in usage hints.
func ExampleFeatures() CarFeatures {
	return CarFeatures{
		ModelKey:                "Volkswagen",
		Mileage:                 17500,
		EnginePower:             190,
		Fuel:                    "diesel",
		PaintColor:              "black",
		CarType:                 "convertible",
		PrivateParkingAvailable: true,
		HasGPS:                  true,
		HasAirConditioning:      true,
		AutomaticCar:            true,
		HasGetaroundConnect:     true,
		HasSpeedRegulator:       true,
		WinterTires:             true,
	}
}
