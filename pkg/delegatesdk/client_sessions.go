package delegatesdk

import (
	"context"
	"net/http"
	"net/url"
)

func sessionPath(id string, suffix string) string {
	return "/v1/sessions/" + url.PathEscape(id) + suffix
}

// CreateSession starts an empty session.
func (c *Client) CreateSession(ctx context.Context) (*SessionResponse, error) {
	var out SessionResponse
	if err := c.do(ctx, http.MethodPost, "/v1/sessions", nil, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// IssueCredential signs a new credential for the session, replacing any
// earlier one.
func (c *Client) IssueCredential(ctx context.Context, sessionID string, req IssueCredentialRequest) (*CredentialResponse, error) {
	var out CredentialResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/credential"), req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetCredential returns the session's credential. A session without one is
// a not_found APIError.
func (c *Client) GetCredential(ctx context.Context, sessionID string) (*CredentialResponse, error) {
	var out CredentialResponse
	if err := c.do(ctx, http.MethodGet, sessionPath(sessionID, "/credential"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearCredential(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, "/credential"), nil, nil, http.StatusNoContent)
}

// VerifySessionCredential verifies the session's stored credential against
// the service key.
func (c *Client) VerifySessionCredential(ctx context.Context, sessionID string) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.do(ctx, http.MethodPost, sessionPath(sessionID, "/credential/verify"), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// EndSession removes everything held for the session.
func (c *Client) EndSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, sessionPath(sessionID, ""), nil, nil, http.StatusNoContent)
}

func (c *Client) VerifyCredential(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	var out VerifyResponse
	if err := c.do(ctx, http.MethodPost, "/v1/credentials/verify", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSigner describes the key the service signs credentials with.
func (c *Client) GetSigner(ctx context.Context) (*SignerResponse, error) {
	var out SignerResponse
	if err := c.do(ctx, http.MethodGet, "/v1/signer", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConsentURLs returns the consent page links for the given query.
func (c *Client) GetConsentURLs(ctx context.Context, query url.Values) (*ConsentResponse, error) {
	var out ConsentResponse
	path := "/v1/consent"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
