package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const deviceGrantType = "urn:ietf:params:oauth:grant-type:device_code"

// RequestDeviceCode starts a device authorization for clientID.
func (c *Client) RequestDeviceCode(ctx context.Context, clientID, scope string) (*DeviceCode, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("scope", scope)

	var code DeviceCode
	if err := c.postForm(ctx, c.webURL+"/login/device/code", form, &code); err != nil {
		return nil, err
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return nil, fmt.Errorf("github: device code response missing codes")
	}
	return &code, nil
}

// PollAccessToken makes one poll of the token endpoint. A pending
// authorization is not an error: it comes back in resp.Error.
func (c *Client) PollAccessToken(ctx context.Context, clientID, deviceCode string) (*AccessTokenResponse, error) {
	form := url.Values{}
	form.Set("client_id", clientID)
	form.Set("device_code", deviceCode)
	form.Set("grant_type", deviceGrantType)

	var resp AccessTokenResponse
	if err := c.postForm(ctx, c.webURL+"/login/oauth/access_token", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken makes a cheap authenticated call and returns nil if
// GitHub accepted the token.
func (c *Client) ValidateToken(ctx context.Context, token string) error {
	u := c.apiURL + "/user/issues"
	resp, err := c.do(ctx, http.MethodGet, u, apiHeader(token), nil)
	if err != nil {
		return err
	}
	c.logger.Info("tested token", "url", u, "status", resp.status)
	if resp.status < 200 || resp.status >= 300 {
		return newAPIError(http.MethodGet, u, resp.status, resp.body)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, u string, form url.Values, out any) error {
	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(ctx, http.MethodPost, u, header, []byte(form.Encode()))
	if err != nil {
		return err
	}
	if resp.status < 200 || resp.status >= 300 {
		return newAPIError(http.MethodPost, u, resp.status, resp.body)
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("github: decode %s: %w (body: %s)", u, err, strings.TrimSpace(snippet(resp.body)))
	}
	return nil
}
