package main

import (
	"crypto/rand"
	"crypto/rsa"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vitalvas/apkit/httpsig"
)

const minKeyBits = 2048

type keygenOptions struct {
	out    string
	format string
	bits   int
	actor  string
}

func newKeygenCommand(root *rootOptions) *cobra.Command {
	opts := keygenOptions{}

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an RSA key pair for an actor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}

			if opts.out != "" {
				cfg.Keystore.Path = opts.out
			}

			format := httpsig.KeyFormat(opts.format)
			if format != httpsig.KeyFormatPKCS1 && format != httpsig.KeyFormatPKCS8 {
				return fmt.Errorf("unknown key format %q", opts.format)
			}

			if opts.bits < minKeyBits {
				return fmt.Errorf("key size %d is below %d bits", opts.bits, minKeyBits)
			}

			key, err := rsa.GenerateKey(rand.Reader, opts.bits)
			if err != nil {
				return fmt.Errorf("generate key: %w", err)
			}

			priv, err := httpsig.MarshalPrivateKey(key, format)
			if err != nil {
				return err
			}

			pub, err := httpsig.MarshalPublicKey(&key.PublicKey, format)
			if err != nil {
				return err
			}

			keys, closeKeys, err := openKeystore(cmd.Context(), cfg.Keystore)
			if err != nil {
				return err
			}
			defer closeKeys()

			if err := keys.Put(cmd.Context(), opts.actor, pub, priv); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d-bit %s key pair to %s %s\n", opts.bits, format, cfg.Keystore.Driver, cfg.Keystore.Path)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.out, "out", "", "key store path, overrides keystore.path")
	flags.StringVar(&opts.format, "format", string(httpsig.KeyFormatPKCS8), "PEM encoding: pkcs1 or pkcs8")
	flags.IntVar(&opts.bits, "bits", minKeyBits, "RSA key size in bits")
	flags.StringVar(&opts.actor, "actor", "", "actor name, required by the per-actor and sqlite stores")

	return cmd
}
