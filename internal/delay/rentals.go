package delay

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"

	"github.com/OldStager01/getaround-pricing/internal/dataset"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

const (
	colRentalID    = "rental_id"
	colCarID       = "car_id"
	colCheckinType = "checkin_type"
	colState       = "state"
	colDelay       = "delay_at_checkout_in_minutes"
	colPreviousID  = "previous_ended_rental_id"
	colTimeDelta   = "time_delta_with_previous_rental_in_minutes"
	colPricePerDay = "rental_price_per_day"
)

// Rentals converts the delay dataset into typed rows. The id, checkin type
// and state columns are required; the others may be absent.
func Rentals(df dataframe.DataFrame) ([]models.Rental, error) {
	ids, err := dataset.Floats(df, colRentalID)
	if err != nil {
		return nil, err
	}
	checkin, err := dataset.Strings(df, colCheckinType)
	if err != nil {
		return nil, err
	}
	states, err := dataset.Strings(df, colState)
	if err != nil {
		return nil, err
	}

	cars := optionalFloats(df, colCarID)
	delays := optionalFloats(df, colDelay)
	previous := optionalFloats(df, colPreviousID)
	deltas := optionalFloats(df, colTimeDelta)

	rentals := make([]models.Rental, len(ids))
	for i := range ids {
		if math.IsNaN(ids[i]) {
			return nil, fmt.Errorf("row %d: missing %s", i, colRentalID)
		}
		r := models.Rental{
			RentalID:                     int64(ids[i]),
			CheckinType:                  checkin[i],
			State:                        states[i],
			DelayAtCheckoutMinutes:       floatAt(delays, i),
			TimeDeltaWithPreviousMinutes: floatAt(deltas, i),
		}
		if c := floatAt(cars, i); c != nil {
			r.CarID = int64(*c)
		}
		if p := floatAt(previous, i); p != nil {
			id := int64(*p)
			r.PreviousEndedRentalID = &id
		}
		rentals[i] = r
	}

	return rentals, nil
}

// AverageDailyPrice is the mean rental price per day in the pricing dataset.
func AverageDailyPrice(df dataframe.DataFrame) (float64, error) {
	return dataset.Mean(df, colPricePerDay)
}

func optionalFloats(df dataframe.DataFrame, column string) []float64 {
	values, err := dataset.Floats(df, column)
	if err != nil {
		return nil
	}
	return values
}

func floatAt(values []float64, i int) *float64 {
	if values == nil || math.IsNaN(values[i]) {
		return nil
	}
	v := values[i]
	return &v
}
