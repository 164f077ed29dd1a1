package main

import (
	"log"
	"os"

	"github.com/keklick1337/GhostContainers/internal/cli"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("panic occurred: %v", r)
			os.Exit(1)
		}
	}()

	os.Exit(cli.Execute())
}
