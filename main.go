package main

import (
	"os"

	"github.com/aRestless/staticip/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
