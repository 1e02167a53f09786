package delegatesdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ListApps returns every application managed by manager.
func (c *Client) ListApps(ctx context.Context, manager string) (*ListAppsResponse, error) {
	var out ListAppsResponse
	path := "/v1/managers/" + url.PathEscape(manager) + "/apps"
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetApp(ctx context.Context, appID uint64) (*Application, error) {
	var out Application
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/apps/%d", appID), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetAppVersion(ctx context.Context, appID, version uint64) (*VersionResponse, error) {
	var out VersionResponse
	path := fmt.Sprintf("/v1/apps/%d/versions/%d", appID, version)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDelegatedAgents lists the agent keys that permitted a version.
func (c *Client) GetDelegatedAgents(ctx context.Context, appID, version uint64) (*AgentsResponse, error) {
	var out AgentsResponse
	path := fmt.Sprintf("/v1/apps/%d/versions/%d/agents", appID, version)
	if err := c.do(ctx, http.MethodGet, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterApp requires a credential.
func (c *Client) RegisterApp(ctx context.Context, req RegisterAppRequest) (*RegisterAppResponse, error) {
	var out RegisterAppResponse
	if err := c.do(ctx, http.MethodPost, "/v1/apps", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterVersion requires a credential.
func (c *Client) RegisterVersion(ctx context.Context, appID uint64, req RegisterVersionRequest) (*RegisterVersionResponse, error) {
	var out RegisterVersionResponse
	path := fmt.Sprintf("/v1/apps/%d/versions", appID)
	if err := c.do(ctx, http.MethodPost, path, req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetVersionEnabled requires a credential.
func (c *Client) SetVersionEnabled(ctx context.Context, appID, version uint64, enabled bool) (*TxResponse, error) {
	var out TxResponse
	path := fmt.Sprintf("/v1/apps/%d/versions/%d/enabled", appID, version)
	if err := c.do(ctx, http.MethodPut, path, SetEnabledRequest{Enabled: enabled}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDelegatee requires a credential.
func (c *Client) AddDelegatee(ctx context.Context, appID uint64, delegatee string) (*TxResponse, error) {
	var out TxResponse
	path := fmt.Sprintf("/v1/apps/%d/delegatees", appID)
	if err := c.do(ctx, http.MethodPost, path, AddDelegateeRequest{Delegatee: delegatee}, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveDelegatee requires a credential.
func (c *Client) RemoveDelegatee(ctx context.Context, appID uint64, delegatee string) (*TxResponse, error) {
	var out TxResponse
	path := fmt.Sprintf("/v1/apps/%d/delegatees/%s", appID, url.PathEscape(delegatee))
	if err := c.do(ctx, http.MethodDelete, path, nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}
