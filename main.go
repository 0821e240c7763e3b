package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/lepinkainen/subsorter/cmd"
	"github.com/lepinkainen/subsorter/config"
	"github.com/lepinkainen/subsorter/logging"
	"github.com/lepinkainen/subsorter/types"
)

var Version = "dev"

type CLI struct {
	Config    kong.ConfigFlag  `help:"Load flag defaults from a TOML file"`
	Verbose   bool             `short:"v" help:"Print diagnostic logs to stderr"`
	DebugLog  string           `help:"Write debug diagnostics to this file" type:"path"`
	LogFormat string           `help:"Diagnostic log format (${enum})" enum:"console,json" default:"console"`
	Version   kong.VersionFlag `help:"Show version and exit"`

	Sort    cmd.SortCmd    `cmd:"" help:"Copy captures into a frequency/protocol folder tree"`
	Scan    cmd.ScanCmd    `cmd:"" help:"Show how captures would be sorted without copying anything"`
	Inspect cmd.InspectCmd `cmd:"" help:"Print the parsed header of capture files"`
	Catalog cmd.CatalogCmd `cmd:"" help:"List well-known frequencies and protocols"`
}

// loggingOptions maps the global flags to logger settings
func (c *CLI) loggingOptions() logging.Options {
	switch {
	case c.DebugLog != "":
		return logging.Options{Level: "debug", Format: c.LogFormat, File: c.DebugLog}
	case c.Verbose:
		return logging.Options{Level: "debug", Format: c.LogFormat}
	default:
		return logging.Options{Level: "warn", Format: c.LogFormat}
	}
}

func newParser(cli *CLI, configPaths []string, extra ...kong.Option) (*kong.Kong, error) {
	options := []kong.Option{
		kong.Name("subsorter"),
		kong.Description("Sort Flipper Zero SubGHz captures into folders by frequency and protocol."),
		kong.UsageOnError(),
		kong.Configuration(config.Loader, configPaths...),
		kong.Vars{"version": Version},
	}
	return kong.New(cli, append(options, extra...)...)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, config.DefaultPaths)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	logger, err := logging.New(cli.loggingOptions())
	ctx.FatalIfErrorf(err)

	appCtx := &types.AppContext{
		Version:   Version,
		Logger:    logger,
		LogToFile: cli.DebugLog != "",
	}
	err = ctx.Run(appCtx)
	_ = logger.Sync()
	ctx.FatalIfErrorf(err)
}
