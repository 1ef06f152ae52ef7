package main

import (
	"os"

	// Registers the json and yaml rules formats.
	_ "github.com/infodancer/mzfilter/rules"
)

func main() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
