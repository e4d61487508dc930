package main

import (
	_ "time/tzdata"

	"github.com/igor-ruivo/metin2-events/internal/cli"
)

func main() {
	cli.Execute()
}
