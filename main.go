package main

import (
	"github.com/chriserin/stepwise/cmd"
	"github.com/chriserin/stepwise/pkg/registry"
)

func main() {
	cmd.Execute(registry.Default)
}
