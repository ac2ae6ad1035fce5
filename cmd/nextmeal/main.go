package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/hpungsan/nextmeal/internal/artifact"
	"github.com/hpungsan/nextmeal/internal/config"
	"github.com/hpungsan/nextmeal/internal/logging"
	"github.com/hpungsan/nextmeal/internal/mcp"
	"github.com/hpungsan/nextmeal/internal/predict"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"predict": true, "encode": true, "status": true,
	"defaults": true, "serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
               _                      _
   _ __   ___ | |_ ___ __ ___   ___  | |
  | '_ \ / _ \| __|  _' _ \ / _ \/ _' | |
  | | | |  __/| |_| | | | | |  __/ (_| | |
  |_| |_|\___| \__|_| |_| |_|\___|\__,_|_|

  Next-meal calorie predictor

  Usage: nextmeal <command> [options]
         nextmeal --help

  MCP server mode requires piped input.`)
}

// fail prints to stderr and exits 1.
func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no config or artifacts
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}
	baseDir := filepath.Join(homeDir, config.DirName)

	if err := config.LoadDotEnv(".env"); err != nil {
		fail("failed to load .env: %v", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		fail("could not determine working directory: %v", err)
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}
	if err := config.ApplyEnv(cfg, os.Getenv); err != nil {
		fail("%v", err)
	}
	cfg.ResolvePaths(baseDir)

	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		fail("failed to set up logging: %v", err)
	}
	defer closeLog()

	svc := newService(cfg, logger)

	if isCLIMode() {
		app := newCLIApp(svc, cfg, logger)
		if err := app.Run(os.Args); err != nil {
			closeLog()
			fail("%v", err)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		closeLog()
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'nextmeal --help' for usage.\n")
		os.Exit(1)
	}

	if err := mcp.Run(svc, cfg, logger, Version); err != nil {
		closeLog()
		fail("%v", err)
	}
}

// newService wires the memoized artifact loader into a prediction service.
// Nothing is loaded until the first prediction or status request.
func newService(cfg *config.Config, logger *zap.Logger) *predict.Service {
	loader := artifact.NewLoader(artifact.Spec{
		ModelKind:    cfg.ModelKind,
		ModelPath:    cfg.ModelPath,
		ModelURL:     cfg.ModelURL,
		ModelName:    cfg.ModelName,
		ModelTimeout: cfg.ModelTimeout(),
		ScalerPath:   cfg.ScalerPath,
	}, logger)
	return predict.NewService(loader, logger)
}
