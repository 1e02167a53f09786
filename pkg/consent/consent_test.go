package consent_test

import (
	"bytes"
	"context"
	"net/url"
	"testing"

	"github.com/aussiebroadwan/delegate/pkg/consent"
	"github.com/stretchr/testify/require"
)

func TestPageURLs(t *testing.T) {
	p, err := consent.New("https://consent.example.com/some/base/", nil)
	require.NoError(t, err)

	require.Equal(t, "https://consent.example.com/signin", p.SignInURL(nil))
	require.Equal(t, "https://consent.example.com/delegate", p.DelegateURL(nil))

	q := url.Values{"app_id": {"7"}}
	require.Equal(t, "https://consent.example.com/delegate?app_id=7", p.DelegateURL(q))
}

func TestNewRejectsBadBase(t *testing.T) {
	for _, base := range []string{"consent.example.com", "ftp://consent.example.com", "://"} {
		_, err := consent.New(base, nil)
		require.ErrorIs(t, err, consent.ErrInvalidBaseURL, base)
	}
}

func TestEmptyBaseUsesDefault(t *testing.T) {
	p, err := consent.New("", nil)
	require.NoError(t, err)
	require.Equal(t, consent.DefaultBaseURL+"/signin", p.SignInURL(nil))
}

func TestOpenUsesInjectedOpener(t *testing.T) {
	var opened []string
	opener := consent.OpenerFunc(func(_ context.Context, u string) error {
		opened = append(opened, u)
		return nil
	})

	p, err := consent.New("http://localhost:3000", opener)
	require.NoError(t, err)

	require.NoError(t, p.OpenSignIn(context.Background(), nil))
	require.NoError(t, p.OpenDelegation(context.Background(), nil))
	require.Equal(t, []string{"http://localhost:3000/signin", "http://localhost:3000/delegate"}, opened)
}

func TestWriterOpener(t *testing.T) {
	var buf bytes.Buffer
	p, err := consent.New("http://localhost:3000", consent.WriterOpener{W: &buf})
	require.NoError(t, err)

	require.NoError(t, p.OpenSignIn(context.Background(), nil))
	require.Equal(t, "http://localhost:3000/signin\n", buf.String())
}

func TestOpenWithoutOpener(t *testing.T) {
	p, err := consent.New("http://localhost:3000", nil)
	require.NoError(t, err)
	require.Error(t, p.OpenSignIn(context.Background(), nil))
}
