package models

const (
	CheckinMobile  = "mobile"
	CheckinConnect = "connect"

	StateEnded    = "ended"
	StateCanceled = "canceled"
)

// Rental is one row of the checkout delay dataset.
type Rental struct {
	RentalID                     int64    `json:"rental_id"`
	CarID                        int64    `json:"car_id"`
	CheckinType                  string   `json:"checkin_type"`
	State                        string   `json:"state"`
	DelayAtCheckoutMinutes       *float64 `json:"delay_at_checkout_in_minutes,omitempty"`
	PreviousEndedRentalID        *int64   `json:"previous_ended_rental_id,omitempty"`
	TimeDeltaWithPreviousMinutes *float64 `json:"time_delta_with_previous_rental_in_minutes,omitempty"`
}

func (r Rental) HasPrevious() bool {
	return r.PreviousEndedRentalID != nil && r.TimeDeltaWithPreviousMinutes != nil
}
