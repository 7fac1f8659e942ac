package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hemlock/internal/ast"
	"hemlock/internal/config"
	"hemlock/internal/interp"
	"hemlock/internal/native"

	"github.com/mattn/go-isatty"
)

var (
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"

	help    bool
	version bool

	logLevel   string
	logFile    string
	configPath string
	dumpAST    bool
	maxTasks   int
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	flag.BoolVar(&dumpAST, "dump-ast", false, "Pretty-print the decoded AST and exit")
	flag.IntVar(&maxTasks, "max-tasks", 0, "Cap on concurrently running tasks (0 = unlimited)")
	flag.StringVar(&logLevel, "log-level", "error", "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	cfg := loadConfiguration()
	setupLogger(cfg)

	if version {
		fmt.Printf("hemlock version 'v%s' %s %s\n", cfg.Version, BuildDate, Commit)
		return
	}
	if help || flag.Arg(0) == "" {
		printHelp()
		return
	}

	astPath := flag.Arg(0)
	data, err := os.ReadFile(astPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", astPath, err)
		os.Exit(1)
	}

	if cfg.DumpAST {
		var pretty any
		if err := json.Unmarshal(data, &pretty); err == nil {
			out, _ := json.MarshalIndent(pretty, "", "  ")
			fmt.Println(string(out))
		}
		return
	}

	prog, err := ast.DecodeProgram(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", astPath, err)
		os.Exit(1)
	}

	in := interp.New(interp.Options{
		Args:     flag.Args()[1:],
		Out:      os.Stdout,
		ErrOut:   os.Stderr,
		MaxTasks: cfg.MaxTasks,
		Natives:  native.DBNatives(),
	})

	env := in.NewRootEnvironment()
	runErr := in.Run(prog, env)
	env.Clear()
	env.Release()

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Uncaught exception: %s\n", runErr.Message())
		runErr.Release()
		os.Exit(1)
	}
}

func loadConfiguration() config.Configuration {
	cfg := config.Default()
	cfg.Version = Version
	if configPath != "" {
		loaded, err := config.LoadFile(configPath, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v; continuing with defaults\n", err)
		} else {
			cfg = loaded
		}
	}
	// explicit flags win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = logLevel
		case "log-file":
			cfg.LogFile = logFile
		case "dump-ast":
			cfg.DumpAST = dumpAST
		case "max-tasks":
			cfg.MaxTasks = maxTasks
		}
	})
	return cfg
}

// setupLogger wires the default slog logger: JSON records for files and
// pipes, a text handler when stderr is an interactive terminal.
func setupLogger(cfg config.Configuration) {
	writer := os.Stderr
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err == nil {
			if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				writer = f
			} else {
				fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", cfg.LogFile, err)
			}
		}
	}

	opts := &slog.HandlerOptions{Level: logLevelFromString(cfg.LogLevel)}
	var handler slog.Handler
	if isatty.IsTerminal(writer.Fd()) || isatty.IsCygwinTerminal(writer.Fd()) {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func printHelp() {
	fmt.Printf(`Usage: hemlock [options] program.ast.json [args...]

Runs a Hemlock program from its parsed AST (the JSON form produced by the
parser tool-chain). Program arguments after the file are exposed to the
program as the read-only 'args' array.

Options:
  -config <path>     Load runtime settings from a YAML file.
  -dump-ast          Pretty-print the decoded AST and exit.
  -max-tasks <n>     Cap on concurrently running tasks (0 = unlimited).
  -log-level <level> Set the log level: debug, info, warn, error. Default 'error'.
  -log-file <path>   Write logs to a file instead of stderr.
  -help              Display this help information and exit.
  -version           Display version information and exit.

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
