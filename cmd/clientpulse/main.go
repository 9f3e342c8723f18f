// Command clientpulse segments customers and evaluates marketing campaigns.
//
//	clientpulse serve                      run the web service
//	clientpulse analyze --transactions t.csv --campaigns c.csv --format html
//	clientpulse version
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
