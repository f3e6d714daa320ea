package main

import (
	"os"

	"github.com/ledgerpane/ledgerpane/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
