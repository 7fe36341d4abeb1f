package delay

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// WriteTable renders the report as aligned plain-text tables.
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := make([]string, 0, len(r.Buckets)+1)
	for _, b := range r.Buckets {
		header = append(header, string(b))
	}

	fmt.Fprintf(tw, "Rentals by state (%d total)\t\n", r.TotalRentals)
	fmt.Fprintf(tw, "state\t%s\t\n", strings.Join(header, "\t"))
	for _, state := range r.States() {
		writeCounts(tw, state, r.ByState[state], r.Buckets)
	}
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "Rentals by checkin type\t")
	fmt.Fprintf(tw, "checkin\t%s\t\n", strings.Join(header, "\t"))
	for _, checkin := range r.CheckinTypes() {
		writeCounts(tw, checkin, r.BucketTotals[checkin], r.Buckets)
	}
	fmt.Fprintln(tw, "\t")

	fmt.Fprintf(tw, "Late checkouts (trimmed at q=%.2f: %.0f < delay < %.0f)\t\n",
		r.Trim.Quantile, r.Trim.Lower, r.Trim.Upper)
	fmt.Fprintln(tw, "checkin\tlate\tmedian min\tloss/delay $\ttotal loss $\t")
	for _, checkin := range r.CheckinTypes() {
		s := r.Late[checkin]
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%.2f\t\n",
			checkin, s.LateCount, s.MedianDelayMinutes, s.LossPerDelay, s.TotalLoss)
	}
	fmt.Fprintf(tw, "avg daily price $%.2f, $%.3f per minute\t\n", r.AvgDailyPrice, r.AvgPricePerMinute)
	fmt.Fprintln(tw, "\t")

	fmt.Fprintln(tw, "Threshold impact\t")
	fmt.Fprintln(tw, "scope\tthreshold min\tconsecutive\tblocked\tblocked %\tproblematic\tsolved\t")
	for _, t := range r.Thresholds {
		fmt.Fprintf(tw, "%s\t%.0f\t%d\t%d\t%.1f\t%d\t%d\t\n",
			t.Scope, t.ThresholdMinutes, t.Consecutive, t.Blocked, t.BlockedShare*100, t.Problematic, t.Solved)
	}

	return tw.Flush()
}

func writeCounts(w io.Writer, label string, counts BucketCounts, buckets []Bucket) {
	cells := make([]string, 0, len(buckets))
	for _, b := range buckets {
		cells = append(cells, fmt.Sprintf("%d", counts[b]))
	}
	fmt.Fprintf(w, "%s\t%s\t\n", label, strings.Join(cells, "\t"))
}
