package main

import (
	"os"

	"github.com/sqve/tandem/cmd/tandem/commands"
)

func main() {
	os.Exit(commands.Execute(os.Args[1:]))
}
