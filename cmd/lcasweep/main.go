package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/config"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/logger"
)

const usage = `usage: lcasweep <command> [flags]

commands:
  run      execute a sweep request (-request file.json [-save])
  pareto   print the Pareto front of a stored group (-group N [-algorithm A])
  export   write stored results as CSV (-out file.csv)
  fitness  print the fitness-over-time logs
  configs  print saved run configs and simulator configs
  serve    serve the gRPC query API and Prometheus metrics
`

type command func(ctx context.Context, args []string, stdout io.Writer) error

var commands = map[string]command{
	"run":     runCommand,
	"pareto":  paretoCommand,
	"export":  exportCommand,
	"fitness": fitnessCommand,
	"configs": configsCommand,
	"serve":   serveCommand,
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := dispatch(ctx, os.Args[1], os.Args[2:], os.Stdout)
	stop()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, name string, args []string, stdout io.Writer) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", name, usage)
	}
	return cmd(ctx, args, stdout)
}

// globalFlags are accepted by every command
type globalFlags struct {
	configPath string
	logLevel   string
}

func newFlagSet(name string) (*flag.FlagSet, *globalFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	g := &globalFlags{}
	fs.StringVar(&g.configPath, "config", os.Getenv("LCASWEEP_CONFIG"), "path to the YAML service config")
	fs.StringVar(&g.logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	return fs, g
}

// load reads the service config and installs the default logger
func (g *globalFlags) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if g.logLevel != "" {
		level = g.logLevel
	}
	logger.SetDefault(logger.NewWithFormat(cfg.LogFormat, level, os.Stderr))
	return cfg, nil
}
