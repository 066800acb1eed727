package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/docplan/internal/catalog"
	"github.com/dusk-indust/docplan/internal/config"
	"github.com/dusk-indust/docplan/internal/mcptools"
	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/store"
)

// CLI flags parsed from command line.
type cliFlags struct {
	ProjectRoot   string
	Catalog       string
	MaxExpansions int
	Timeout       string
	Workers       int
	Store         string
	Verbose       bool
	ServeMCP      bool
	HTTPAddr      string
	Version       bool
}

// version is set by goreleaser at build time.
var version = "dev"

const usage = `usage: docplan [flags] <command> [args]

commands:
  plan <items-file>   plan every item in a YAML or JSON item file
  rules               list the rules of the active catalog
  plans               list stored plans
  show <id>           print a stored plan
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is the resolved configuration shared by the subcommands.
type env struct {
	cfg    config.ProjectConfig
	root   string
	logger *zap.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var flags cliFlags

	fs := flag.NewFlagSet("docplan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&flags.ProjectRoot, "project-root", ".", "directory holding docplan.yml")
	fs.StringVar(&flags.Catalog, "catalog", "", "YAML rule catalog (default: builtin catalog)")
	fs.IntVar(&flags.MaxExpansions, "max-expansions", 0, "search expansion budget per item (0: default of 100000, negative: unbounded)")
	fs.StringVar(&flags.Timeout, "timeout", "", "search timeout per item, e.g. 2s")
	fs.IntVar(&flags.Workers, "workers", 0, "items planned in parallel (default: GOMAXPROCS)")
	fs.StringVar(&flags.Store, "store", "", "plan store path")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable verbose output")
	fs.BoolVar(&flags.ServeMCP, "serve-mcp", false, "run as MCP server on stdio")
	fs.StringVar(&flags.HTTPAddr, "http", "", "with -serve-mcp, serve streamable HTTP on this address instead of stdio")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)
		return nil
	}

	e, err := newEnv(fs, flags, stdout, stderr)
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	if flags.ServeMCP {
		return serveMCP(ctx, e, flags.HTTPAddr)
	}

	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no command given")
	}
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "plan":
		return runPlan(ctx, e, rest)
	case "rules":
		return runRules(e)
	case "plans":
		return runPlans(ctx, e)
	case "show":
		return runShow(ctx, e, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// newEnv loads docplan.yml from the project root and applies flags that
// were set explicitly on the command line.
func newEnv(fs *flag.FlagSet, flags cliFlags, stdout, stderr io.Writer) (*env, error) {
	fileCfg, err := config.Load(flags.ProjectRoot)
	if err != nil {
		return nil, err
	}
	cfg := *fileCfg

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "catalog":
			cfg.CatalogPath = flags.Catalog
		case "max-expansions":
			cfg.MaxExpansions = flags.MaxExpansions
		case "timeout":
			cfg.Timeout = flags.Timeout
		case "workers":
			cfg.Workers = flags.Workers
		case "store":
			cfg.StorePath = flags.Store
		case "verbose":
			cfg.Verbose = flags.Verbose
		}
	})
	if _, err := cfg.ItemTimeout(); err != nil {
		return nil, err
	}
	cfg = cfg.WithDefaults()

	logger, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, root: flags.ProjectRoot, logger: logger, stdout: stdout, stderr: stderr}, nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// resolve makes a config path relative to the project root.
func (e *env) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

func (e *env) planner() (*planner.Planner, error) {
	var cat *catalog.Catalog
	if e.cfg.CatalogPath != "" {
		c, err := catalog.Load(e.resolve(e.cfg.CatalogPath))
		if err != nil {
			return nil, err
		}
		cat = c
	}
	// A negative budget leaves the planner unbounded.
	return planner.New(cat,
		planner.WithMaxExpansions(max(e.cfg.MaxExpansions, 0)),
		planner.WithLogger(e.logger.Named("planner")),
	), nil
}

func (e *env) openStore(ctx context.Context) (store.Store, error) {
	st, err := newStore(e.resolve(e.cfg.StorePath), e.logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.InitSchema(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func serveMCP(ctx context.Context, e *env, addr string) error {
	p, err := e.planner()
	if err != nil {
		return err
	}
	st, err := e.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := mcptools.NewPlanService(p, st, e.logger.Named("mcp"))
	if addr != "" {
		e.logger.Info("Serving MCP over HTTP", zap.String("addr", addr))
		return mcptools.RunMCPServer(ctx, svc, addr)
	}
	return mcptools.RunStdio(ctx, svc)
}
