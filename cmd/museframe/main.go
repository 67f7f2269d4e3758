package main

import (
	"os"

	"github.com/basel-ax/museframe/internal/logger"
)

func main() {
	defer logger.Sync()

	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
