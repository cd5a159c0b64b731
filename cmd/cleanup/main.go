// Command cleanup removes duplicate and invalid entries from stored
// attendance and assessment records.
//
//	cleanup attendance            dry run over the attendance collection
//	cleanup attendance --apply    dry run, confirm, then write
//	cleanup iat --apply --yes     write without prompting
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
