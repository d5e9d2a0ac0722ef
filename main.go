package main

import (
	"os"

	"github.com/StrangeCoder-atWork/The-Leveling-System-sub000/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
