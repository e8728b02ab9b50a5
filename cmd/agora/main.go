package main

import (
	"os"

	"github.com/agora-gov/agora/launch/cmds"
	"github.com/agora-gov/agora/util"
)

var Version = "v0.1.0"

type mainFlags struct {
	Init    cmds.InitCommand    `cmd:"" help:"create a design file"`
	Run     cmds.RunCommand     `cmd:"" help:"run governance node"`
	Version cmds.VersionCommand `cmd:"" help:"print version"`
}

func main() {
	flags := &mainFlags{
		Init: cmds.NewInitCommand(),
		Run:  cmds.NewRunCommand(),
	}

	ctx, err := cmds.Context(os.Args[1:], flags)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")

		os.Exit(1)
	}

	ctx.FatalIfErrorf(ctx.Run(util.Version(Version)))
}
