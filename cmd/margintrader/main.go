package main

import (
	"os"

	"margintrader/cmd/margintrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
