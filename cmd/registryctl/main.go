package main

import (
	"github.com/opencorpdata/registry/cmd/registryctl/cmd"
)

func main() {
	cmd.Execute()
}
