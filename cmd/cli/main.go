package main

import (
	"os"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/cli"
)

func main() {
	os.Exit(cli.Execute())
}
