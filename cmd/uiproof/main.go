package main

import (
	"os"

	"github.com/watzon/uiproof/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
