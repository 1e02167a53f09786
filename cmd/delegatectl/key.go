package main

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/aussiebroadwan/delegate/pkg/jwtx"
	"github.com/aussiebroadwan/delegate/pkg/pkp"
	"github.com/spf13/cobra"
)

var errInvalidCredential = errors.New("credential is not valid")

func newKeyCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Inspect or create signing keys",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the configured signer's algorithm, identity and public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pemKey, err := cryptox.EncodePublicKeyPEM(e.core.Signer.PublicKey())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "alg:      %s\n", e.core.Signer.Alg())
			fmt.Fprintf(out, "identity: %s\n", e.core.Identity)
			fmt.Fprint(out, pemKey)
			return nil
		},
	}

	var alg string
	generate := offline(&cobra.Command{
		Use:   "generate",
		Short: "Generate a PKCS8 PEM private key for signer_key_file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				pemKey []byte
				err    error
			)
			switch alg {
			case jwtx.AlgEdDSA:
				pemKey, err = cryptox.GenerateEd25519Key()
			case jwtx.AlgES256:
				pemKey, err = cryptox.GenerateES256Key()
			default:
				return fmt.Errorf("unsupported --alg %q (want %s or %s)", alg, jwtx.AlgEdDSA, jwtx.AlgES256)
			}
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(pemKey)
			return err
		},
	})
	generate.Flags().StringVar(&alg, "alg", jwtx.AlgEdDSA, "key algorithm (EdDSA or ES256)")

	mnemonic := offline(&cobra.Command{
		Use:   "mnemonic",
		Short: "Generate a BIP-39 mnemonic for signer_mnemonic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := pkp.NewMnemonic()
			if err != nil {
				return err
			}
			signer, err := pkp.NewLocalFromMnemonic(m)
			if err != nil {
				return err
			}
			id, err := pkp.Identity(signer)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), m)
			fmt.Fprintf(cmd.ErrOrStderr(), "identity: %s\n", id)
			return nil
		},
	})

	cmd.AddCommand(show, generate, mnemonic)
	return cmd
}
