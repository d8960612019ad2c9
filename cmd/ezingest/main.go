package main

import (
	"os"

	"github.com/libinsight/ezingest/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
