package main

import (
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/delegate/internal/credential"
	"github.com/aussiebroadwan/delegate/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newTokenCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify credentials signed by the delegated key",
	}
	cmd.AddCommand(newTokenIssueCmd(e), newTokenVerifyCmd(e))
	return cmd
}

func newTokenIssueCmd(e *env) *cobra.Command {
	var (
		sessionID string
		audience  []string
		payload   string
		expiresIn int
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a credential and store it in a session",
		Long: `Issue a credential signed by the delegated key and store it in the session,
replacing any credential already there. With no --audience the credential is
issued for the service audience and authorizes registry writes over HTTP.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var claims map[string]any
			if payload != "" {
				if err := json.Unmarshal([]byte(payload), &claims); err != nil {
					return fmt.Errorf("parse --payload: %w", err)
				}
			}
			if len(audience) == 0 {
				audience = []string{e.cfg.CredentialAudience}
			}

			st, err := e.core.Sessions.Open(sessionID)
			if err != nil {
				return err
			}
			issuer := credential.NewIssuer(st, credential.IssuerOptions{Logger: e.logger, Metrics: e.core.Metrics})
			c, err := issuer.Issue(ctxOf(cmd), e.core.Signer, e.core.Identity, claims, expiresIn, audience)
			if err != nil {
				return err
			}

			e.logger.Info("credential issued",
				"session", sessionID,
				"fingerprint", cryptox.Fingerprint(c.Token),
				"expires_at", c.Claims.ExpiresAt,
			)
			fmt.Fprintln(cmd.OutOrStdout(), c.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "cli", "session that holds the credential")
	cmd.Flags().StringSliceVar(&audience, "audience", nil, "intended audience (repeatable)")
	cmd.Flags().StringVar(&payload, "payload", "", "JSON object of extra claims")
	cmd.Flags().IntVar(&expiresIn, "expires-in", credential.DefaultExpiresInMinutes, "lifetime in minutes")
	return cmd
}

func newTokenVerifyCmd(e *env) *cobra.Command {
	var publicKey string
	cmd := &cobra.Command{
		Use:   "verify <credential>",
		Short: "Verify a credential's signature and expiry",
		Long: `Verify a credential's signature and expiry. Without --public-key the
configured signer's key is used. Prints "valid" or "invalid"; an invalid
credential exits non-zero.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := credential.NewVerifier(credential.VerifierOptions{Metrics: e.core.Metrics})

			var (
				ok  bool
				err error
			)
			if publicKey != "" {
				ok, err = v.VerifyWithKeyText(args[0], publicKey)
			} else {
				ok, err = v.Verify(args[0], e.core.Signer.PublicKey())
			}
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "invalid")
				return errInvalidCredential
			}
			fmt.Fprintln(cmd.OutOrStdout(), "valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&publicKey, "public-key", "", "PEM or hex public key to verify against")
	return cmd
}
