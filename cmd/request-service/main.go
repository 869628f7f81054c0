package main

import (
	"log"

	"github.com/safespace/request-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
