package main

import (
	"os"

	"github.com/canteen-sim/canteen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
