package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	_ "github.com/joho/godotenv/autoload"

	"github.com/fdg312/fitgen/internal/config"
	"github.com/fdg312/fitgen/internal/dbmigrate"
	"github.com/fdg312/fitgen/internal/logging"
)

func main() {
	dir := flag.String("dir", "", "migrations directory (default: embedded)")
	direct := flag.Bool("require-direct", false, "only accept DATABASE_URL_DIRECT")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: migrate [-dir path] [-require-direct] up|down|status|version|redo|reset|up-to N|down-to N")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	command := flag.Arg(0)
	switch command {
	case "up", "down", "status", "version", "redo", "reset", "up-to", "down-to":
	default:
		fmt.Fprintf(os.Stderr, "unsupported command %q\n", command)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	logger := logging.New(cfg)

	sel, err := dbmigrate.SelectDatabaseURL(cfg, *direct)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate")
	}
	if sel.Warning != "" {
		logger.Warn().Msg(sel.Warning)
	}
	logger.Info().Str("command", command).Str("using", sel.Source).Msg("migrate")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := dbmigrate.Run(ctx, command, sel.URL, dbmigrate.Options{Dir: *dir, Logger: logger}, flag.Args()[1:]...); err != nil {
		logger.Fatal().Err(err).Msg("migrate failed")
	}

	logger.Info().Str("command", command).Msg("migrate completed successfully")
}
