package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/fwpack/cmd/fwpack/commands"
	ferrors "git.home.luguber.info/inful/fwpack/internal/foundation/errors"
	"git.home.luguber.info/inful/fwpack/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("fwpack"),
		kong.Description("Rename, archive and collect firmware build artifacts"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	if err := ctx.Run(&commands.Global{Logger: slog.Default()}, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
