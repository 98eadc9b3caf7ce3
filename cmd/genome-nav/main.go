// Package main provides the genome-nav command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/genome-nav/internal/config"
	"github.com/inodb/genome-nav/internal/genome"
	"github.com/inodb/genome-nav/internal/store"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := newRootCmd(a)
	err := root.ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if isUsageError(err) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// isUsageError reports whether cobra rejected the command line itself.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag") ||
		strings.Contains(msg, "arg(s)")
}

// app holds what every command shares, set up once the flags are parsed.
type app struct {
	cfgFile     string
	verbose     bool
	profileMode string

	cfg    config.Config
	logger *zap.Logger
	svc    genome.Service
	client *genome.Client
	store  *store.Store

	closers []func()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "genome-nav",
		Short: "Browse genome assemblies, genes and sequence",
		Long: `genome-nav navigates public genome data: assemblies and chromosomes from the
UCSC Genome Browser API, gene search and details from NCBI, and DNA sequence
for any range of a chromosome.`,
		Example: `  genome-nav assemblies
  genome-nav chromosomes --genome hg19
  genome-nav search BRCA1
  genome-nav sequence chr17:43044295-43044394
  genome-nav browse`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: ~/"+config.FileName+")")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.StringVar(&a.profileMode, "profile", "", "write a cpu or mem profile to the current directory")
	pf.Bool("cache", false, "cache chromosome lists and gene records in DuckDB")
	_ = viper.BindPFlag("cache.enabled", pf.Lookup("cache"))

	root.AddCommand(
		newAssembliesCmd(a),
		newChromosomesCmd(a),
		newSearchCmd(a),
		newGeneCmd(a),
		newSequenceCmd(a),
		newNavigateCmd(a),
		newBrowseCmd(a),
		newServeCmd(a),
		newCacheCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup reads the configuration and builds the logger and the service.
func (a *app) setup() error {
	if err := initConfig(a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(a.verbose)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.logger.Sync() })

	switch a.profileMode {
	case "":
	case "cpu":
		p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.Quiet)
		a.closers = append(a.closers, p.Stop)
	case "mem":
		p := profile.Start(profile.MemProfile, profile.ProfilePath("."), profile.Quiet)
		a.closers = append(a.closers, p.Stop)
	default:
		return fmt.Errorf("unknown --profile %q (want cpu or mem)", a.profileMode)
	}

	a.client = genome.NewClient(cfg.ClientOptions())
	a.client.SetLogger(a.logger.Named("genome"))
	a.svc = a.client

	if cfg.Cache.Enabled {
		st, err := store.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		a.closers = append(a.closers, func() { st.Close() })
		a.store = st
		cached := store.NewCachingService(a.client, st, cfg.Cache.TTL)
		cached.SetLogger(a.logger.Named("cache"))
		a.svc = cached
		a.logger.Debug("cache enabled", zap.String("path", cfg.Cache.Path), zap.Duration("ttl", cfg.Cache.TTL))
	}
	return nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// initConfig reads the config file, if any, and binds defaults and
// environment variables.
func initConfig(cfgFile string) error {
	v := viper.GetViper()
	config.SetDefaults(v)
	config.BindEnv(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("cannot determine home directory: %w", err)
		}
		v.SetConfigFile(filepath.Join(home, config.FileName))
	}

	if err := v.ReadInConfig(); err != nil {
		// The default file is optional; an explicit one is not.
		if cfgFile == "" && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// newLogger builds a console logger on stderr: warnings and above, or
// everything with verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "genome-nav version %s (%s) built %s\n", version, commit, date)
		},
	}
}
