package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/displayctl/cmd/displayctl/commands"
	"git.home.luguber.info/inful/displayctl/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("displayctl"),
		kong.Description("Manage display configuration for streaming sessions: apply a session's resolution, refresh rate and HDR state, and revert when it ends."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}))
}
