package main

import (
	"os"

	"floodbatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
