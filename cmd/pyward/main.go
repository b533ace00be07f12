package main

import (
	"os"

	"pyward/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
