package main

import (
	"os"

	"github.com/ironsheep/box-measure/cmd/box-measure/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
