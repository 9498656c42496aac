package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"lettrebuild/pkg/api"
	"lettrebuild/pkg/history"
	"lettrebuild/pkg/logging"
	"lettrebuild/pkg/processing"
)

var version = "dev"

// The three build-stage failures (interpreter, dependencies, bundle) all
// exit 1, matching the orchestrator this tool replaces. Configuration and
// environment problems get their own codes.
const exitBuildFailed = 1

const (
	exitDotenvError = iota + 2
	exitLoggingError
	exitLoadBuildFileFailed
	exitWorkdirCheckFailed
	exitWorkdirNotADirectory
	exitLoadContextFailed
	exitHistoryDBError
)

var (
	buildFile      string
	workDir        string
	inputDirectory string
	maxDepth       int
	pythonCommand  string
	contextFile    string
	historyDB      string
	showHistory    bool
	pause          bool
	loggingType    string
	logLevel       string
	showVersion    bool
)

func init() {
	flag.StringVar(
		&buildFile,
		"build-file",
		"",
		"build definition to run (default: lettrebuild.yaml in the work directory, or the built-in definition)")
	flag.StringVar(
		&workDir,
		"workdir",
		".",
		"directory containing the entry scripts")
	flag.StringVar(
		&inputDirectory,
		"input-directory",
		"",
		"discover and run every lettrebuild.yaml under this directory instead of a single build file")
	flag.IntVar(
		&maxDepth,
		"max-depth",
		-1,
		"max directory recursion depth for discovery (-1 = unlimited, 0 = root only)")
	flag.StringVar(
		&pythonCommand,
		"python",
		"",
		"interpreter command, overrides the build file")
	flag.StringVar(
		&contextFile,
		"context-file",
		"",
		"global context YAML file for summary and version info templates")
	flag.StringVar(
		&historyDB,
		"history-db",
		"",
		"SQLite file to record build history in")
	flag.BoolVar(
		&showHistory,
		"show-history",
		false,
		"print recent builds from the history database and exit")
	flag.BoolVar(
		&pause,
		"pause",
		true,
		"hold the console for Enter before exiting")
	flag.StringVar(
		&loggingType,
		"logging-type",
		"tint",
		"logging type: json, text or tint")
	flag.StringVar(
		&logLevel,
		"log-level",
		"info",
		"logging level: debug, info, warn, error")
	flag.BoolVar(
		&showVersion,
		"version",
		false,
		"print version and exit")
}

func main() {
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if err := logging.Initialize(loggingType, logLevel); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitLoggingError)
	}

	includeEnv()
	checkWorkDir()

	db := openHistory()
	if db != nil {
		defer db.Close()
	}

	if showHistory {
		printHistory(db)
		return
	}

	globalContext := loadGlobalContext()

	runner := &processing.Runner{}
	if db != nil {
		runner.Recorder = db
	}

	var err error
	if inputDirectory != "" {
		err = runner.RunAll(inputDirectory, maxDepth, globalContext, pythonCommand)
	} else {
		err = runner.RunBuildFile(loadBuildFile(), globalContext)
	}

	if err != nil {
		slog.Error("build failed", "error", err)
		acknowledge()
		os.Exit(exitBuildFailed)
	}

	slog.Info("done")
	acknowledge()
}

func loadBuildFile() *api.BuildFile {
	name := buildFile
	if name == "" {
		name = filepath.Join(workDir, api.DefaultBuildFilename)
		if _, err := os.Stat(name); os.IsNotExist(err) {
			slog.Info("no lettrebuild.yaml found, using the built-in build definition")
			return defaultBuildFile()
		}
	}

	bf, err := api.LoadBuildFile(name)
	if err != nil {
		slog.Error("failed to load build file", "filename", name, "error", err)
		acknowledge()
		os.Exit(exitLoadBuildFileFailed)
	}

	if pythonCommand != "" {
		bf.Python = pythonCommand
	}
	return bf
}

func defaultBuildFile() *api.BuildFile {
	abs, err := filepath.Abs(workDir)
	if err != nil {
		abs = workDir
	}
	bf := api.DefaultBuildFile(abs)
	if pythonCommand != "" {
		bf.Python = pythonCommand
	}
	return bf
}

func loadGlobalContext() map[string]any {
	if contextFile == "" {
		return nil
	}

	ctx, err := processing.LoadContextFile(contextFile)
	if err != nil {
		slog.Error("failed to load context file", "filename", contextFile, "error", err)
		acknowledge()
		os.Exit(exitLoadContextFailed)
	}
	return ctx
}

func openHistory() *history.BuildDB {
	if historyDB == "" {
		return nil
	}

	db, err := history.Open(historyDB)
	if err != nil {
		slog.Error("failed to open history database", "filename", historyDB, "error", err)
		acknowledge()
		os.Exit(exitHistoryDBError)
	}
	return db
}

func printHistory(db *history.BuildDB) {
	if db == nil {
		slog.Error("-show-history requires -history-db")
		os.Exit(exitHistoryDBError)
	}

	records, err := db.RecentBuilds(20)
	if err != nil {
		slog.Error("failed to read build history", "error", err)
		os.Exit(exitHistoryDBError)
	}

	for _, r := range records {
		fmt.Printf("%s  %-8s  %-24s  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"), r.Status, r.Target, r.Artifact)
	}
}

func includeEnv() {
	err := godotenv.Load()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("failed to load .env", "error", err)
			os.Exit(exitDotenvError)
		}
		slog.Debug("no .env file found")
	} else {
		slog.Info("using .env file")
	}
}

func checkWorkDir() {
	st, err := os.Stat(workDir)
	if err != nil {
		slog.Error("failed to check work directory", "directory", workDir, "error", err)
		os.Exit(exitWorkdirCheckFailed)
	}

	if !st.IsDir() {
		slog.Error("-workdir is not a directory", "directory", workDir)
		os.Exit(exitWorkdirNotADirectory)
	}
}

// acknowledge holds the console until the user presses Enter, so the
// messages stay readable when the tool was launched by double-click.
// A closed stdin returns immediately, so non-interactive runs never hang.
func acknowledge() {
	if !pause {
		return
	}
	fmt.Print("\nPress Enter to close...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
