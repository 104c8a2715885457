package main

import (
	"os"

	"github.com/joseph-ayodele/spendify/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
