/*
Package main runs the suggestion ranking server and its CLI [DBG] mode.

suggestserve ranks a fixed vocabulary against what an annotator types. Every
query is stripped of whitespace, scored against each term, and answered with
the matching terms, best first, followed by the query exactly as it was
typed so the annotator can always keep their own text.

# Usage

Start the IPC server with the configured vocabulary:

	suggestserve

Use another vocabulary file and enable debug logs:

	suggestserve -vocab data/cities.txt -d

Run the interactive CLI against a task service:

	suggestserve -c -tasks http://localhost:5000

# Configuration

The TOML config is created with defaults on first run:

	[server]
	max_limit = 64
	max_query = 120

	[ranker]
	scorer = "quicksilver"

	[vocab]
	path = ""
	terms = []

	[tasks]
	base_url = "http://localhost:5000"
	timeout_ms = 5000

	[cli]
	default_limit = 24

A relative vocab path is resolved against the working directory, the config
directory and the executable directory, in that order. The server re-reads
the config while running.

# IPC

Requests and responses are msgpack over stdin/stdout, see package server.

	{"id": "r1", "q": "ки в", "l": 5}
	{"id": "r1", "s": [{"w": "Київ", "sc": 0.95}, {"w": "ки в", "lit": true}], "c": 2, "t": 31}

# Command Line Flags

	-version    Show current version
	-d          Enable debug mode with detailed logging
	-c          Run in CLI mode instead of server mode
	-config     Path to a config file
	-vocab      Vocabulary file (.txt, .msgpack), overrides [vocab] path
	-scorer     quicksilver, fuzzy or prefix, overrides [ranker] scorer
	-limit      Suggestions to print in CLI mode
	-tasks      Task service URL for CLI mode, overrides [tasks] base_url
	-save       Write the scorer back to the config file, other flags are not saved
	-reset      Rewrite the default config file and exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/internal/cli"
	"github.com/vulyk/suggestserve/pkg/config"
	"github.com/vulyk/suggestserve/pkg/score"
	"github.com/vulyk/suggestserve/pkg/server"
	"github.com/vulyk/suggestserve/pkg/tasks"
	"github.com/vulyk/suggestserve/pkg/vocab"
)

const (
	Version = "0.3.0"
	AppName = "suggestserve"
	gh      = "https://github.com/vulyk/suggestserve"
)

// sigHandler exits normally on SIGINT/SIGTERM.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	defaultConfig := config.DefaultConfig()

	showVersion := flag.Bool("version", false, "Show current version")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	configPath := flag.String("config", "", "Path to config file (default: user config dir)")
	vocabPath := flag.String("vocab", "", "Vocabulary file, overrides [vocab] path")
	scorerName := flag.String("scorer", "", "Scorer: quicksilver, fuzzy or prefix")
	limit := flag.Int("limit", 0, fmt.Sprintf("Number of suggestions to print in CLI mode (default from config, %d)", defaultConfig.CLI.DefaultLimit))
	tasksURL := flag.String("tasks", "", "Task service URL for CLI mode, overrides [tasks] base_url")
	save := flag.Bool("save", false, "Save -scorer to the config file")
	reset := flag.Bool("reset", false, "Rewrite the default config file and exit")

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

	if *reset {
		if err := config.RebuildConfigFile(); err != nil {
			log.Fatalf("Failed to rebuild config: %v", err)
		}
		log.Printf("Default config written to %s", config.GetActiveConfigPath(""))
		return
	}

	appConfig, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(usedPath))

	if *scorerName != "" {
		appConfig.Ranker.Scorer = *scorerName
	}
	if *limit > 0 {
		appConfig.CLI.DefaultLimit = *limit
	}
	if *tasksURL != "" {
		appConfig.Tasks.BaseURL = *tasksURL
	}
	if *vocabPath != "" {
		appConfig.Vocab.Path = *vocabPath
	}

	scorer, err := score.New(appConfig.Ranker.Scorer)
	if err != nil {
		log.Fatalf("Invalid scorer: %v", err)
	}

	if *save && usedPath != "" {
		if _, err := config.UpdateFile(usedPath, nil, nil, &appConfig.Ranker.Scorer); err != nil {
			log.Errorf("Failed to save config: %v", err)
		} else {
			log.Infof("Saved config to %s", usedPath)
		}
	}

	var configDir string
	if usedPath != "" {
		configDir = filepath.Dir(usedPath)
	}
	terms, err := vocab.LoadConfigured(appConfig.Vocab.Path, appConfig.Vocab.Terms, configDir)
	if err != nil {
		log.Fatalf("Failed to load vocabulary: %v", err)
	}
	if terms.Len() == 0 {
		log.Warn("Vocabulary is empty, only literal queries will be suggested")
	}
	log.Debugf("Loaded %d terms, scorer=[%s]", terms.Len(), appConfig.Ranker.Scorer)

	// CLI is for trying scorers and the task flow by hand.
	if *cliMode {
		log.SetReportTimestamp(false)
		inputHandler := cli.NewInputHandler(terms, scorer, appConfig.CLI.DefaultLimit, appConfig.Server.MaxQuery)
		if appConfig.Tasks.BaseURL != "" {
			client := tasks.NewClient(appConfig.Tasks.BaseURL, appConfig.Tasks.Timeout())
			inputHandler.SetController(tasks.NewController(client, nil))
		}
		if err := inputHandler.Start(context.Background()); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	srv, err := server.NewServer(terms, appConfig, usedPath)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	showStartupInfo(terms, appConfig.Ranker.Scorer)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ suggestserve ] Ranks vocabulary suggestions for crowd annotation")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo prints basic info on stderr, stdout belongs to IPC.
func showStartupInfo(v *vocab.Vocabulary, scorer string) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	stats := v.Stats()
	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("vocabulary: %d terms, longest %d", stats["terms"], stats["maxLen"])
	log.Infof("scorer: %s", scorer)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
