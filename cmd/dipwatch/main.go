package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cfoust/dipwatch/pkg/config"
	"github.com/cfoust/dipwatch/pkg/version"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Version kong.VersionFlag `help:"Print version information and exit." short:"v"`
	Debug   bool             `help:"Whether to enable debug logging."`
	Configs []string         `help:"Configuration files, applied in order over the defaults." name:"config" short:"c" type:"existingfile"`

	Poll struct {
		Games []int `arg:"" optional:"" name:"games" help:"Game ids to poll. Defaults to the configured games, then to every game in history."`
	} `cmd:"" help:"Poll games and send notifications as they change."`

	History struct {
		Game   int    `arg:"" name:"game" help:"Game id to print."`
		Format string `help:"Output format." enum:"text,json" default:"text"`
	} `cmd:"" help:"Print the stored snapshots for a game."`

	Migrate struct {
	} `cmd:"" help:"Move snapshots from the legacy history file into per-game files."`

	Config struct {
	} `cmd:"" help:"Write dipwatch's default configuration to standard output."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func setupLogging() {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = log.Output(consoleWriter)
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	setupLogging()

	// A missing .env is fine
	_ = godotenv.Load()

	if len(os.Args) == 1 {
		err := pollCommand(nil, nil)
		if err != nil {
			writeError(err)
		}
		return
	}

	ctx := kong.Parse(&CLI,
		kong.Name("dipwatch"),
		kong.Description("watches webDiplomacy games and reports what changed"),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf(
				"dipwatch %s (commit %s)\nbuilt %s",
				version.Version,
				version.GitCommit,
				version.BuildTime,
			),
		},
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	var err error
	switch ctx.Command() {
	case "poll":
		fallthrough
	case "poll <games>":
		err = pollCommand(CLI.Configs, CLI.Poll.Games)
	case "history <game>":
		err = historyCommand(CLI.Configs, CLI.History.Game, CLI.History.Format)
	case "migrate":
		err = migrateCommand(CLI.Configs)
	case "config":
		os.Stdout.Write(config.DEFAULT)
	}

	if err != nil {
		writeError(err)
	}
}
