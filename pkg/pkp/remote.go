package pkp

import (
	"bytes"
	"context"
	"crypto"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/delegate/pkg/jwtx"
)

// ErrRemote reports a non-success answer from the signing service.
var ErrRemote = errors.New("pkp: signing service error")

// KeyResponse is returned by GET /v1/keys/{id}.
type KeyResponse struct {
	KeyID     string `json:"key_id"`
	Alg       string `json:"alg"`
	PublicKey string `json:"public_key"` // PKIX PEM or hex
}

// SignRequest is the body of POST /v1/keys/{id}/sign.
type SignRequest struct {
	Message string `json:"message"` // base64url, no padding
}

// SignResponse is returned by POST /v1/keys/{id}/sign.
type SignResponse struct {
	Signature string `json:"signature"` // base64url, no padding
}

// ErrorResponse is the error body used by the signing service.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Remote is a Signer backed by an external delegated key service. It does
// not retry; retry policy belongs to the caller.
type Remote struct {
	BaseURL    string
	KeyID      string
	HTTPClient *http.Client

	alg string
	pub crypto.PublicKey
}

// NewRemote fetches the key description for keyID and returns a ready signer.
func NewRemote(ctx context.Context, baseURL, keyID string) (*Remote, error) {
	r := &Remote{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		KeyID:   keyID,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	var key KeyResponse
	if err := r.do(ctx, http.MethodGet, r.keyPath(""), nil, &key); err != nil {
		return nil, err
	}

	pub, err := jwtx.ParsePublicKey(key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("pkp: remote key %q: %w", keyID, err)
	}
	alg, err := jwtx.AlgForKey(pub)
	if err != nil {
		return nil, fmt.Errorf("pkp: remote key %q: %w", keyID, err)
	}
	if key.Alg != "" && key.Alg != alg {
		return nil, fmt.Errorf("pkp: remote key %q advertises %s but is a %s key", keyID, key.Alg, alg)
	}

	r.alg, r.pub = alg, pub
	return r, nil
}

func (r *Remote) Alg() string                 { return r.alg }
func (r *Remote) PublicKey() crypto.PublicKey { return r.pub }

// Sign asks the service to sign msg.
func (r *Remote) Sign(ctx context.Context, msg []byte) ([]byte, error) {
	body, err := json.Marshal(SignRequest{Message: base64.RawURLEncoding.EncodeToString(msg)})
	if err != nil {
		return nil, err
	}

	var out SignResponse
	if err := r.do(ctx, http.MethodPost, r.keyPath("/sign"), body, &out); err != nil {
		return nil, err
	}

	sig, err := base64.RawURLEncoding.DecodeString(out.Signature)
	if err != nil || len(sig) == 0 {
		return nil, fmt.Errorf("%w: undecodable signature", ErrRemote)
	}
	return sig, nil
}

func (r *Remote) keyPath(suffix string) string {
	return "/v1/keys/" + url.PathEscape(r.KeyID) + suffix
}

// do performs a JSON request and decodes a 200 response into out.
func (r *Remote) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = resp.Status
		}
		return fmt.Errorf("%w: %s %s: %s %s", ErrRemote, method, path, e.Error, e.ErrorDescription)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
