package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"timelens/internal/cli"
	"timelens/internal/config"
	"timelens/internal/instance"
)

var version = "v0.1.0"

func main() {
	var root cli.CLI
	ctx := kong.Parse(&root,
		kong.Name("timelens"),
		kong.Description("Periodic screenshots of the desktop, named after the document you are working on."),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version":     version,
			"config_path": config.DefaultPath(),
		},
	)

	err := ctx.Run(&root.Globals)
	if errors.Is(err, instance.ErrAlreadyRunning) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx.FatalIfErrorf(err)
}
