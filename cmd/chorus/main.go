// ABOUTME: CLI entrypoint for the chorus workspace runner: loads a workspace document, builds
// ABOUTME: the runtime from it, and runs it plain, under the dashboard, or under the TUI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/2389-research/chorus/agents/reasoner/llm"
	"github.com/2389-research/chorus/config"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/dashboard"
	"github.com/2389-research/chorus/store"
	"github.com/2389-research/chorus/tui"
	"github.com/2389-research/chorus/workspace"
)

var version = "dev"

// cliConfig holds all CLI configuration parsed from flags and positional arguments.
type cliConfig struct {
	workspaceFile string
	dashboardAddr string
	dataDir       string
	noIndex       bool
	tuiMode       bool
	verbose       bool
	showVersion   bool
}

func main() {
	loadDotEnv(".env")

	cfg := parseFlags()

	if cfg.showVersion {
		fmt.Printf("chorus %s\n", version)
		os.Exit(0)
	}

	os.Exit(run(cfg))
}

func parseFlags() cliConfig {
	var cfg cliConfig

	fs := flag.NewFlagSet("chorus", flag.ContinueOnError)
	fs.StringVar(&cfg.dashboardAddr, "dashboard", "", "Address to serve the read-only HTTP dashboard on (disabled if empty)")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "Data directory for the message index (default: $XDG_DATA_HOME/chorus)")
	fs.BoolVar(&cfg.noIndex, "no-index", false, "Disable the SQLite message index")
	fs.BoolVar(&cfg.tuiMode, "tui", false, "Run with an interactive terminal viewer")
	fs.BoolVar(&cfg.verbose, "verbose", false, "Verbose output")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	fs.Usage = func() {
		printHelp(os.Stderr, version)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if fs.NArg() > 0 {
		cfg.workspaceFile = fs.Arg(0)
	}

	return cfg
}

func printHelp(w *os.File, version string) {
	fmt.Fprintf(w, "chorus %s — run a multi-agent workspace document\n\n", version)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  chorus [flags] <workspace.yaml>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -dashboard addr   serve the read-only HTTP dashboard on addr")
	fmt.Fprintln(w, "  -data-dir dir     data directory for the message index")
	fmt.Fprintln(w, "  -no-index         disable the SQLite message index")
	fmt.Fprintln(w, "  -tui              run with an interactive terminal viewer")
	fmt.Fprintln(w, "  -verbose          verbose output")
	fmt.Fprintln(w, "  -version          print version and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "An LLM API key (ANTHROPIC_API_KEY or OPENAI_API_KEY) is required for any")
	fmt.Fprintln(w, "workspace document that uses the \"reasoner\" agent type.")
}

// run dispatches based on cfg. Returns an exit code: 0 for success, 1 for failure.
func run(cfg cliConfig) int {
	if cfg.workspaceFile == "" {
		printHelp(os.Stderr, version)
		return 0
	}

	f, err := os.Open(cfg.workspaceFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	doc, err := config.Decode(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	client := detectBackend(cfg.verbose)
	reg := buildRegistry(client)

	ctrl, startMessages, err := config.Build(doc, reg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	if !cfg.noIndex {
		idx, err := openIndex(cfg.dataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not open message index: %v\n", err)
		} else {
			ctrl.WithIndex(idx)
			defer idx.Close()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	if cfg.dashboardAddr != "" {
		dash := dashboard.NewServer(ctrl, cfg.dashboardAddr)
		defer dash.Close()
		go func() {
			if err := dash.ListenAndServe(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: dashboard server stopped: %v\n", err)
			}
		}()
		fmt.Fprintf(os.Stderr, "dashboard listening on http://%s\n", cfg.dashboardAddr)
	}

	if cfg.tuiMode {
		return runWithTUI(ctx, cancel, ctrl, startMessages, doc.Title)
	}

	if err := ctrl.Run(ctx, startMessages); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

// runWithTUI drives the Controller in the background while the terminal
// viewer runs in the foreground; quitting the viewer cancels the
// Controller's context, and the Controller's eventual stop doesn't block
// the viewer from having already returned control to the terminal.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, ctrl *workspace.Controller, startMessages []core.Message, title string) int {
	runErr := make(chan error, 1)
	go func() {
		runErr <- ctrl.Run(ctx, startMessages)
	}()

	program := tui.NewProgram(title, ctrl)
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		cancel()
		<-runErr
		return 1
	}

	cancel()
	if err := <-runErr; err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func openIndex(dataDir string) (*store.Index, error) {
	if dataDir == "" {
		var err error
		dataDir, err = defaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return store.Open(filepath.Join(dataDir, "index.db"))
}

// detectBackend builds an llm.Client from whichever provider API keys are
// present in the environment. Returns nil if none are set; workspace
// documents that only use the "echo" agent type don't need one.
func detectBackend(verbose bool) *llm.Client {
	var opts []llm.Option

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		if verbose {
			fmt.Fprintln(os.Stderr, "[backend] ANTHROPIC_API_KEY detected, registering anthropic provider")
		}
		opts = append(opts, llm.WithProvider("anthropic", llm.NewAnthropicProvider(key, "claude-sonnet-4-5")))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if verbose {
			fmt.Fprintln(os.Stderr, "[backend] OPENAI_API_KEY detected, registering openai provider")
		}
		opts = append(opts, llm.WithProvider("openai", llm.NewOpenAIProvider(key, "gpt-4o")))
	}

	if len(opts) == 0 {
		if verbose {
			fmt.Fprintln(os.Stderr, "[backend] no API keys found, reasoner agents will fail when they call the model")
		}
		return nil
	}

	return llm.NewClient(opts...)
}
