package main

import (
	"os"

	"github.com/bnema/agentdeck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
