package main

import (
	"os"

	"github.com/banshee-data/scadc/internal/cli"
)

func main() {
	os.Exit(cli.Main(os.Args[1:], os.Stdout, os.Stderr))
}
