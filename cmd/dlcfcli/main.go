package main

import (
	"github.com/robotalks/dlcf/pkg/cli/sh"
	"github.com/robotalks/dlcf/pkg/env"

	_ "github.com/robotalks/dlcf/pkg/cli/cmds/frames"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
