// Copyright 2025 The hintserve Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the type hint completion server and CLI [DBG] application.

hintserve sends Python source files to a type prediction service, keeps the
ranked predictions per file in memory and, while the user types, offers them
as completion candidates at three kinds of annotation sites: after the ":" of
a parameter, after the "->" of an unannotated return, and at the ": =" of an
annotated assignment.

# Usage

Start the server with default settings:

	hintserve

Use a local prediction service and enable debug mode:

	hintserve -url http://localhost:5001/api/predict -d

Run in CLI mode against a saved service response:

	hintserve -c -payload resp.json -src app.py

Without -payload the CLI asks the service for predictions first.

# Configuration

Runtime configuration lives in hintserve.toml, created with defaults if
missing:

	[server]
	infer_url = "https://type4py.com/api/predict"
	timeout_ms = 60000
	filter_predictions = true

	[completion]
	lookback_lines = 4
	label_prefix = " "
	max_candidates = 0

	[feedback]
	share_accepted = false

	[cli]
	default_trigger = ":"

# Server Mode

The default mode reads msgpack requests from stdin and writes responses to
stdout; see package server for the message set. Logs always go to stderr.

# Command Line Flags

	-version      Show current version
	-d            Enable debug mode with detailed logging
	-c            Run in CLI mode instead of server mode
	-config       Path to a custom hintserve.toml
	-init-config  Rewrite the default config file and exit
	-url          Prediction service URL, overrides the config
	-payload      Saved service response to load in CLI mode
	-src          Python source file for CLI mode
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/hintserve/internal/cli"
	"github.com/bastiangx/hintserve/internal/logger"
	"github.com/bastiangx/hintserve/pkg/config"
	"github.com/bastiangx/hintserve/pkg/inference"
	"github.com/bastiangx/hintserve/pkg/remote"
	"github.com/bastiangx/hintserve/pkg/resolve"
	"github.com/bastiangx/hintserve/pkg/server"
	"github.com/bastiangx/hintserve/pkg/trigger"
	"github.com/bastiangx/hintserve/pkg/typestore"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "hintserve"
	gh      = "https://github.com/bastiangx/hintserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main wires the store, the service client and either the server or the CLI.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Path to a custom hintserve.toml")
	initConfig := flag.Bool("init-config", false, "Rewrite the default config file with defaults and exit")
	inferURL := flag.String("url", "", "Prediction service URL (overrides config)")
	payloadPath := flag.String("payload", "", "Saved service response JSON (CLI mode)")
	srcPath := flag.String("src", "", "Python source file (CLI mode)")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	if *initConfig {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Print("Config rebuilt", "path", config.GetActiveConfigPath(""))
		return
	}

	appConfig, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *inferURL != "" {
		appConfig.Server.InferURL = *inferURL
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))

	store := typestore.New()
	client := remote.New(remote.Options{
		URL:               appConfig.Server.InferURL,
		Timeout:           appConfig.Server.Timeout(),
		FilterPredictions: appConfig.Server.FilterPredictions,
		Version:           Version,
	})
	ctx := context.Background()

	// CLI would be mainly used for testing and dbg purposes.
	if *cliMode {
		log.SetReportTimestamp(false)
		if err := runCLI(ctx, store, client, appConfig, *srcPath, *payloadPath); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(store, client, appConfig)
	showStartupInfo(client.Endpoint())

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// runCLI loads predictions for one file and starts the query loop.
func runCLI(ctx context.Context, store *typestore.Store, client *remote.Client, cfg *config.Config, srcPath, payloadPath string) error {
	if srcPath == "" {
		return fmt.Errorf("-src is required in CLI mode")
	}
	source, err := os.ReadFile(srcPath)
	if err != nil {
		return err
	}

	var payload *inference.Payload
	if payloadPath != "" {
		f, err := os.Open(payloadPath)
		if err != nil {
			return err
		}
		payload, err = inference.Decode(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("reading %s: %w", payloadPath, err)
		}
	} else {
		log.Infof("Requesting predictions from %s", client.Endpoint())
		payload, err = client.Infer(ctx, srcPath, string(source))
		if err != nil {
			return err
		}
	}

	resp, err := payload.Result()
	if err != nil {
		return err
	}
	store.Put(srcPath, inference.Normalize(resp))

	format := resolve.Format{
		LabelPrefix:   cfg.Completion.LabelPrefix,
		MaxCandidates: cfg.Completion.MaxCandidates,
	}
	resolver := resolve.NewResolver(store, trigger.NewClassifier(cfg.Completion.LookbackLines), format)
	return cli.NewInputHandler(resolver, srcPath, string(source), cfg.CLI.DefaultTrigger).Start()
}

// printVersion renders the version banner on stderr.
func printVersion() {
	banner := logger.NewWithConfig("", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	banner.SetStyles(styles)

	banner.Print("")
	banner.Print(fmt.Sprintf("[ %s ] Ranked type hints while you type!", AppName))
	banner.Print("", "version", Version)
	banner.Print("")
	banner.Print("use -h or --help to see available options")
	banner.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(endpoint string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	println("===========")
	println(" hintserve ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("service: ( %s )", endpoint)
	log.Info("status: ready")
	println("===========")
}
