package main

import (
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/classdoc/cmd/classdoc/commands"
	"git.home.luguber.info/inful/classdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/classdoc/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("classdoc"),
		kong.Description("Render API documentation from a parsed class model."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	global := &commands.Global{Out: os.Stdout}
	if err := ctx.Run(global, &cli); err != nil {
		errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
	}
}
