// Package delay buckets checkout delays and builds the delay report.
package delay

import "math"

type Bucket string

const (
	BucketEarly         Bucket = "Early"
	BucketLate0To15     Bucket = "Late 0-15 mins"
	BucketLate15To30    Bucket = "Late 15-30 mins"
	BucketLate30To60    Bucket = "Late 30-60 mins"
	BucketLate1To2Hours Bucket = "Late 1-2 hours"
	BucketLateOver2h    Bucket = "Late > 2 hours"
	BucketNA            Bucket = "NA"
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{
	BucketEarly,
	BucketLate0To15,
	BucketLate15To30,
	BucketLate30To60,
	BucketLate1To2Hours,
	BucketLateOver2h,
	BucketNA,
}

// BucketOf classifies a checkout delay in minutes. A missing or NaN delay is NA.
func BucketOf(delay *float64) Bucket {
	if delay == nil || math.IsNaN(*delay) {
		return BucketNA
	}

	switch d := *delay; {
	case d < 0:
		return BucketEarly
	case d < 15:
		return BucketLate0To15
	case d < 30:
		return BucketLate15To30
	case d < 60:
		return BucketLate30To60
	case d < 120:
		return BucketLate1To2Hours
	default:
		return BucketLateOver2h
	}
}
