package main

import (
	"os"

	"github.com/MrSnakeDoc/hoarder/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
