package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/containerd/log"
	"github.com/spf13/cobra"
	"github.com/vitalvas/apkit/federation"
	"github.com/vitalvas/apkit/server"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve WebFinger, actor documents and inboxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := root.load()
			if err != nil {
				return err
			}

			keys, closeKeys, err := openKeystore(ctx, cfg.Keystore)
			if err != nil {
				return err
			}
			defer closeKeys()

			actors, err := newActors(cfg, keys)
			if err != nil {
				return err
			}

			fetcher := federation.NewKeyFetcher(federation.KeyFetcherOptions{
				Timeout:               cfg.Federation.Timeout,
				UserAgent:             cfg.Federation.UserAgent,
				CacheSize:             cfg.Federation.KeyCacheSize,
				CacheTTL:              cfg.Federation.KeyCacheTTL,
				RefreshInterval:       cfg.Federation.KeyRefreshInterval,
				AllowPrivateAddresses: cfg.Federation.AllowPrivateAddresses,
			})

			srv, err := server.New(server.Options{
				Config:     cfg,
				Actors:     actors,
				RemoteKeys: fetcher,
			})
			if err != nil {
				return err
			}

			log.G(ctx).WithFields(log.Fields{
				"domain":   cfg.Server.Domain,
				"keystore": cfg.Keystore.Driver,
			}).Info("starting apkit")

			return srv.ListenAndServe(ctx)
		},
	}
}
