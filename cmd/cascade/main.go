package main

import (
	"os"

	"github.com/cascade-orm/cascade/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
