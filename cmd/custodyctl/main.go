package main

import (
	"os"

	"github.com/goliatone/go-custody/cmd/custodyctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
