package main

import (
	"log"

	"github.com/jobwright/applypilot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
