package main

import (
	"net/url"
	"strings"

	"github.com/aussiebroadwan/delegate/internal/domain"
	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/spf13/cobra"
)

func newConsentCmd(e *env) *cobra.Command {
	var params []string

	pages := func(cmd *cobra.Command) (*consent.Pages, url.Values, error) {
		p, err := consent.New(e.cfg.ConsentBaseURL, consent.WriterOpener{W: cmd.OutOrStdout()})
		if err != nil {
			return nil, nil, err
		}
		q := url.Values{}
		for _, kv := range params {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || k == "" {
				return nil, nil, domain.Invalid("param", "%q is not key=value", kv)
			}
			q.Add(k, v)
		}
		return p, q, nil
	}

	cmd := &cobra.Command{
		Use:   "consent",
		Short: "Print consent page URLs",
	}
	cmd.PersistentFlags().StringArrayVar(&params, "param", nil, "query parameter key=value (repeatable)")

	signin := offline(&cobra.Command{
		Use:   "signin",
		Short: "Print the sign-in consent page URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, q, err := pages(cmd)
			if err != nil {
				return err
			}
			return p.OpenSignIn(ctxOf(cmd), q)
		},
	})
	delegate := offline(&cobra.Command{
		Use:   "delegate",
		Short: "Print the delegation-control consent page URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, q, err := pages(cmd)
			if err != nil {
				return err
			}
			return p.OpenDelegation(ctxOf(cmd), q)
		},
	})

	cmd.AddCommand(signin, delegate)
	return cmd
}
