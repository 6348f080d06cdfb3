package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sandeepkv93/calendard/internal/app"
	"github.com/sandeepkv93/calendard/internal/commands"
	"github.com/sandeepkv93/calendard/internal/config"
	"github.com/sandeepkv93/calendard/internal/observability"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "calendard: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("calendard", pflag.ContinueOnError)
	flags.SetInterspersed(false)
	configPath := flags.StringP("config", "c", "", "config file (default ./calendard.yaml when present)")
	logLevel := flags.String("log-level", "", "override log_level")
	flags.Usage = func() { fmt.Fprintln(os.Stderr, commands.Usage) }
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		fmt.Println(commands.Usage)
		return nil
	}

	conf, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}

	var outputs []string
	if conf.LogFile != "" {
		outputs = append(outputs, conf.LogFile)
	}
	logger, err := observability.NewLogger(conf.LogLevel, outputs...)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(conf, logger, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx, flags.Args())
}
