package main

import (
	"os"

	"github.com/emberwatch/emberwatch/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
