package pipeline

import "github.com/OldStager01/getaround-pricing/pkg/models"

var numericColumns = map[string]func(models.CarFeatures) float64{
	"mileage":      func(f models.CarFeatures) float64 { return f.Mileage },
	"engine_power": func(f models.CarFeatures) float64 { return f.EnginePower },
}

var categoricalColumns = map[string]func(models.CarFeatures) string{
	"model_key":   func(f models.CarFeatures) string { return f.ModelKey },
	"fuel":        func(f models.CarFeatures) string { return f.Fuel },
	"paint_color": func(f models.CarFeatures) string { return f.PaintColor },
	"car_type":    func(f models.CarFeatures) string { return f.CarType },
}

var booleanColumns = map[string]func(models.CarFeatures) bool{
	"private_parking_available": func(f models.CarFeatures) bool { return f.PrivateParkingAvailable },
	"has_gps":                   func(f models.CarFeatures) bool { return f.HasGPS },
	"has_air_conditioning":      func(f models.CarFeatures) bool { return f.HasAirConditioning },
	"automatic_car":             func(f models.CarFeatures) bool { return f.AutomaticCar },
	"has_getaround_connect":     func(f models.CarFeatures) bool { return f.HasGetaroundConnect },
	"has_speed_regulator":       func(f models.CarFeatures) bool { return f.HasSpeedRegulator },
	"winter_tires":              func(f models.CarFeatures) bool { return f.WinterTires },
}
