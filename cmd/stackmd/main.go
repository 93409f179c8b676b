package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print styled error with token scrubbing (defense in depth)
		outputError(os.Stderr, err)
		os.Exit(1)
	}
}
