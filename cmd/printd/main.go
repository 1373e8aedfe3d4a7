package main

import (
	"os"

	"github.com/tmechsner/printd/internal/printd/cli"
)

func main() {
	os.Exit(cli.Run())
}
