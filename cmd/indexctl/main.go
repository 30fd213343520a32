package main

import (
	"os"

	"go.pilab.hu/indexer/cmd/indexctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
