package main

import (
	"github.com/ikeya/chaincouncil/internal/cli"
)

func main() {
	cli.Run()
}
