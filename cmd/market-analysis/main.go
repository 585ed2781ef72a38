package main

import (
	"os"

	"github.com/FlamaLlamas/market-analysis/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
