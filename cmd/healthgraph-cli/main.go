package main

import (
	"github.com/LENAX/health-graph/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
