package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/persona-respawn/internal/artifact"
	"github.com/danielpatrickdp/persona-respawn/internal/codec"
	"github.com/danielpatrickdp/persona-respawn/internal/config"
	"github.com/danielpatrickdp/persona-respawn/internal/identity"
	"github.com/danielpatrickdp/persona-respawn/internal/logging"
	"github.com/danielpatrickdp/persona-respawn/internal/persona"
	"github.com/danielpatrickdp/persona-respawn/internal/respawn"
	"github.com/phsym/console-slog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/samber/do"
	"github.com/spf13/cobra"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// #endregion main

// #region root

type rootFlags struct {
	configPath    string
	stateFile     string
	generatorAddr string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "respawn",
		Short:         "Replace failing personas on a decision board",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "respawn.yaml", "config file (missing file means defaults)")
	root.PersistentFlags().StringVar(&flags.stateFile, "state-file", "", "SQLite board state file (overrides config)")
	root.PersistentFlags().StringVar(&flags.generatorAddr, "generator-addr", "", "persona generator gRPC address (overrides config)")

	root.AddCommand(newRunCmd(flags), newSeedCmd(flags), newInspectCmd(flags), newReplayCmd(flags))
	return root
}

// load reads config, applies flag overrides, installs the logger and builds
// the injector. Callers must Shutdown the injector.
func (f *rootFlags) load() (*do.Injector, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if f.stateFile != "" {
		cfg.Store.StateFile = f.stateFile
	}
	if f.generatorAddr != "" {
		cfg.Generator.Addr = f.generatorAddr
	}

	slog.SetDefault(slog.New(console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: cfg.Log.SlogLevel() == slog.LevelDebug,
		Level:     cfg.Log.SlogLevel(),
	})))

	di := do.New()
	do.ProvideValue(di, cfg)
	do.Provide(di, newStore)
	do.Provide(di, newGenerator)
	do.Provide(di, newRegistry)
	do.Provide(di, newService)
	return di, nil
}

// #endregion root

// #region providers

func newStore(i *do.Injector) (*artifact.Store, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if dir := filepath.Dir(cfg.Store.StateFile); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
	}
	return artifact.NewStore(cfg.Store.StateFile)
}

func newGenerator(i *do.Injector) (persona.Generator, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.Generator.Addr == "" {
		slog.Debug("using built-in persona pack generator")
		return persona.NewPackGenerator(identity.UUIDSource{}), nil
	}
	slog.Debug("using remote persona generator", "addr", cfg.Generator.Addr)
	return codec.NewGeneratorClient(cfg.Generator.Addr)
}

func newRegistry(_ *do.Injector) (*prometheus.Registry, error) {
	return prometheus.NewRegistry(), nil
}

func newService(i *do.Injector) (*respawn.Service, error) {
	store := do.MustInvoke[*artifact.Store](i)
	return respawn.New(respawn.Options{
		Store:      store,
		Generator:  do.MustInvoke[persona.Generator](i),
		Logger:     slog.Default(),
		Metrics:    respawn.NewMetrics(do.MustInvoke[*prometheus.Registry](i)),
		Provenance: logging.NewProvenanceLog(store.DB()),
	})
}

// #endregion providers
