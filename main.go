package main

import (
	"github.com/AzielCF/az-funnel/cmd"
)

func main() {
	cmd.Execute()
}
