package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newLookupCommand(root *rootOptions) *cobra.Command {
	var (
		scheme string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "lookup HANDLE",
		Short: "Resolve a remote handle through WebFinger and fetch its actor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			remote, err := newFederationClient(cfg.Federation, nil, scheme).Lookup(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")

				return enc.Encode(remote)
			}

			fmt.Fprintf(out, "id:     %s\n", remote.ID)
			fmt.Fprintf(out, "inbox:  %s\n", remote.DeliveryInbox())
			fmt.Fprintf(out, "key id: %s\n", remote.PublicKey.ID)

			return nil
		},
	}

	flags := cmd.Flags()
	addSchemeFlag(flags, &scheme)
	flags.BoolVar(&asJSON, "json", false, "print the actor document as JSON")

	return cmd
}
