package main

import (
	"os"

	"github.com/miradorstack/mirador-forecast/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
