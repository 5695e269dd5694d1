package main

import (
	"os"

	"github.com/Fepozopo/strand/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
