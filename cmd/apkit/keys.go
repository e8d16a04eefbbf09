package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// keyIndex is a key store that can enumerate and remove key pairs.
type keyIndex interface {
	Names(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
}

func newKeysCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored actor key pairs",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List actors with stored key pairs",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withKeyIndex(cmd.Context(), root, func(idx keyIndex) error {
					names, err := idx.Names(cmd.Context())
					if err != nil {
						return err
					}

					for _, name := range names {
						fmt.Fprintln(cmd.OutOrStdout(), name)
					}

					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete the key pair of an actor",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withKeyIndex(cmd.Context(), root, func(idx keyIndex) error {
					if err := idx.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}

					fmt.Fprintf(cmd.OutOrStdout(), "deleted key pair of %s\n", args[0])

					return nil
				})
			},
		},
	)

	return cmd
}

// withKeyIndex opens the configured key store and runs fn on it. Only
// stores that index keys by name support it.
func withKeyIndex(ctx context.Context, root *rootOptions, fn func(keyIndex) error) error {
	cfg, err := root.load()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Keystore)
	if err != nil {
		return err
	}
	defer closeStore()

	idx, ok := store.(keyIndex)
	if !ok {
		return fmt.Errorf("keystore driver %q cannot list or delete keys", cfg.Keystore.Driver)
	}

	return fn(idx)
}
