package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vitalvas/apkit/activity"
)

type deliverOptions struct {
	actor     string
	inbox     string
	to        string
	content   string
	inReplyTo string
	scheme    string
}

func newDeliverCommand(root *rootOptions) *cobra.Command {
	opts := deliverOptions{}

	cmd := &cobra.Command{
		Use:   "deliver",
		Short: "Sign and deliver a Create(Note) to a remote inbox",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			if (opts.inbox == "") == (opts.to == "") {
				return errors.New("exactly one of --inbox and --to is required")
			}

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

			author, err := actors.Lookup(ctx, opts.actor)
			if err != nil {
				return err
			}

			client := newFederationClient(cfg.Federation, actors, opts.scheme)

			inbox := opts.inbox
			if opts.to != "" {
				remote, err := client.Lookup(ctx, opts.to)
				if err != nil {
					return err
				}

				inbox = remote.DeliveryInbox()
				if inbox == "" {
					return fmt.Errorf("%s has no inbox", remote.ID)
				}
			}

			create := activity.NewCreate(author, activity.NewNote(author, opts.content, opts.inReplyTo, time.Now()))

			if err := client.Deliver(ctx, opts.actor, inbox, create); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), create.ID)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.actor, "actor", "", "local actor name")
	flags.StringVar(&opts.inbox, "inbox", "", "inbox URL")
	flags.StringVar(&opts.to, "to", "", "remote handle, delivered to its shared or personal inbox")
	flags.StringVar(&opts.content, "content", "hello world", "note content")
	flags.StringVar(&opts.inReplyTo, "in-reply-to", "", "URL of the object the note replies to")
	addSchemeFlag(flags, &opts.scheme)
	cmd.MarkFlagRequired("actor")

	return cmd
}
