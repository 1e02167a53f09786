// Package consent builds the sign-in and delegation-control page URLs of a
// consent frontend and hands them to an injected Opener.
package consent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
)

const (
	SignInPath   = "/signin"
	DelegatePath = "/delegate"

	// DefaultBaseURL hosts the public consent frontend.
	DefaultBaseURL = "https://demo.vincent.com"
)

var ErrInvalidBaseURL = errors.New("consent: invalid base url")

// Opener presents a URL to the user. Browsers, terminals and tests each
// supply their own.
type Opener interface {
	Open(ctx context.Context, u string) error
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, u string) error

func (f OpenerFunc) Open(ctx context.Context, u string) error { return f(ctx, u) }

// WriterOpener prints the URL on its own line, for terminals.
type WriterOpener struct {
	W io.Writer
}

func (o WriterOpener) Open(_ context.Context, u string) error {
	_, err := fmt.Fprintln(o.W, u)
	return err
}

// Pages resolves consent page URLs against a base URL. Page paths are
// absolute, so any path on the base is replaced.
type Pages struct {
	base   *url.URL
	opener Opener
}

// New validates base, which must be an absolute http(s) URL.
func New(base string, opener Opener) (*Pages, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, base)
	}
	return &Pages{base: u, opener: opener}, nil
}

// SignInURL returns the sign-in consent page URL with optional query.
func (p *Pages) SignInURL(query url.Values) string { return p.resolve(SignInPath, query) }

// DelegateURL returns the delegation-control consent page URL with optional query.
func (p *Pages) DelegateURL(query url.Values) string { return p.resolve(DelegatePath, query) }

// OpenSignIn opens the sign-in page.
func (p *Pages) OpenSignIn(ctx context.Context, query url.Values) error {
	return p.open(ctx, p.SignInURL(query))
}

// OpenDelegation opens the delegation-control page.
func (p *Pages) OpenDelegation(ctx context.Context, query url.Values) error {
	return p.open(ctx, p.DelegateURL(query))
}

func (p *Pages) resolve(path string, query url.Values) string {
	u := p.base.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (p *Pages) open(ctx context.Context, u string) error {
	if p.opener == nil {
		return errors.New("consent: no opener configured")
	}
	return p.opener.Open(ctx, u)
}
