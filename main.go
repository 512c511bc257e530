package main

import (
	"os"

	"github.com/bisegni/rowtree/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
