package main

import (
	"os"

	"github.com/preflightdev/preflight/cmd/preflight/commands"
)

func main() {
	os.Exit(commands.Execute())
}
