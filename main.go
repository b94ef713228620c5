package main

import (
	"log"

	"github.com/routex/fleetlive/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("fleetlive: %v", err)
	}
}
