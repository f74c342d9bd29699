package guru

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	LoginPath   = "/api/login_check"
	AccountPath = "/api/account"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges account credentials for a long-lived bearer token.
// It does not use the token provider. Any status other than 200 is returned
// as *HTTPStatusError. Storing the token is up to the caller.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("guru: encoding login request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(LoginPath), bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("guru: building login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, raw, err := c.roundTrip(req)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", newHTTPStatusError(req, resp)
	}

	var out loginResponse
	if err := decodeInto(req.URL.String(), raw, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &DecodeError{URL: req.URL.String(), Err: errors.New("response has no token")}
	}

	c.logger.Info("logged in to snippets guru")

	return out.Token, nil
}

// Account fetches the profile of the account the token belongs to.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var acct Account
	if err := c.Execute(ctx, http.MethodGet, c.URL(AccountPath), nil, &acct); err != nil {
		return nil, err
	}
	return &acct, nil
}
