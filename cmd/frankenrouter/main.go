package main

import (
	"os"

	"github.com/macroflight/frankenrouter/cmd/frankenrouter/cmd"
)

func main() {
	if err := cmd.Root.Execute(); err != nil {
		os.Exit(1)
	}
}
