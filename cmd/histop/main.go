package main

import (
	"os"

	"histop/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
