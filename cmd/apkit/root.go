package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/containerd/log"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/vitalvas/apkit/actor"
	"github.com/vitalvas/apkit/config"
	"github.com/vitalvas/apkit/federation"
	"github.com/vitalvas/apkit/keystore"
)

type rootOptions struct {
	configFile string
	envFile    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "apkit",
		Short:         "Federated identity and signed delivery for ActivityPub actors",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	cmd.AddCommand(
		newServeCommand(opts),
		newKeygenCommand(opts),
		newKeysCommand(opts),
		newDeliverCommand(opts),
		newLookupCommand(opts),
	)

	return cmd
}

// load reads the env file, builds the configuration and sets up logging.
// A missing env file is not an error.
func (o *rootOptions) load() (config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	cfg, err := config.Load(o.configFile)
	if err != nil {
		return config.Config{}, err
	}

	if err := setupLogging(cfg.Log); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}

func setupLogging(cfg config.Log) error {
	logrus.SetOutput(os.Stderr)

	if err := log.SetLevel(cfg.Level); err != nil {
		return fmt.Errorf("set log level: %w", err)
	}

	format := log.TextFormat
	if cfg.Format == config.FormatJSON {
		format = log.JSONFormat
	}

	return log.SetFormat(format)
}

// keyStore is a store that accepts new keys.
type keyStore interface {
	keystore.Store
	keystore.Writer
}

// openKeystore opens the configured key store behind the configured
// cache. The returned close function releases it.
func openKeystore(ctx context.Context, cfg config.Keystore) (keyStore, func() error, error) {
	store, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if cfg.CacheSize > 0 {
		return keystore.NewCached(store, cfg.CacheSize, cfg.CacheTTL), closeFn, nil
	}

	return store, closeFn, nil
}

// openStore opens the configured key store without a cache.
func openStore(ctx context.Context, cfg config.Keystore) (keyStore, func() error, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := keystore.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}

		return db, db.Close, nil

	default:
		f, err := keystore.NewFile(cfg.Path, keystore.Layout(cfg.Layout))
		if err != nil {
			return nil, nil, err
		}

		return f, func() error { return nil }, nil
	}
}

func newActors(cfg config.Config, keys keystore.Store) (*actor.Resolver, error) {
	return actor.NewResolver(actor.Options{
		BaseURL: cfg.Server.BaseURL,
		Keys:    keys,
		Strict:  cfg.Actors.Strict,
		Type:    cfg.Actors.Type,
	})
}

func newFederationClient(cfg config.Federation, signers federation.SignerSource, scheme string) *federation.Client {
	return federation.NewClient(federation.ClientOptions{
		Signers:   signers,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		Scheme:    scheme,
	})
}

// addSchemeFlag registers the --scheme flag used for WebFinger lookups.
func addSchemeFlag(flags *pflag.FlagSet, p *string) {
	flags.StringVar(p, "scheme", "https", "scheme used for WebFinger lookups")
}
