// Command pricing serves daily rental price predictions and builds the
// checkout delay report.
//
// @title Getaround Pricing API
// @version 1.0
// @description Daily rental price predictions and checkout delay reports.
// @BasePath /
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
