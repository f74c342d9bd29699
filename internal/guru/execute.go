package guru

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// Validator inspects a successful response before its body is decoded.
// A non-nil error is returned to the caller unchanged.
type Validator func(resp *http.Response, body []byte) error

// RequestOption customises a single request. Options are applied after the
// default headers, so they may override them. They cannot change the method.
type RequestOption func(*requestOptions)

type requestOptions struct {
	header   http.Header
	query    url.Values
	validate Validator
}

// WithHeader sets a request header, replacing any default value.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Set(key, value)
	}
}

// WithQuery adds query parameters to the request URL.
func WithQuery(values url.Values) RequestOption {
	return func(o *requestOptions) {
		if o.query == nil {
			o.query = make(url.Values)
		}
		for k, vs := range values {
			for _, v := range vs {
				o.query.Add(k, v)
			}
		}
	}
}

// WithValidator installs a response validator.
func WithValidator(fn Validator) RequestOption {
	return func(o *requestOptions) {
		o.validate = fn
	}
}

func (o *requestOptions) apply(req *http.Request) {
	for k, vs := range o.header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if len(o.query) > 0 {
		q := req.URL.Query()
		for k, vs := range o.query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		req.URL.RawQuery = q.Encode()
	}
}

// Execute performs one authenticated request against rawURL, which must be
// absolute. body is JSON encoded unless it is nil, []byte or json.RawMessage.
// When out is nil the response body is ignored; otherwise it is decoded into
// out, which is left untouched if decoding fails.
func (c *Client) Execute(ctx context.Context, method, rawURL string, body, out any, opts ...RequestOption) error {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	token, ok := c.tokens.Retrieve(ctx)
	if !ok || token == "" {
		return ErrMissingCredential
	}

	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}

	payload, err := encodeBody(body)
	if err != nil {
		return fmt.Errorf("guru: encoding request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return fmt.Errorf("guru: building request: %w", err)
	}

	req.Header.Set("Content-Type", mediaType)
	req.Header.Set("Accept", mediaType)
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	o.apply(req)

	resp, raw, err := c.roundTrip(req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return newHTTPStatusError(req, resp)
	}

	if o.validate != nil {
		if err := o.validate(resp, raw); err != nil {
			return err
		}
	}

	if out == nil {
		return nil
	}

	return decodeInto(req.URL.String(), raw, out)
}

func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

// decodeInto checks that raw is well-formed JSON before touching out.
func decodeInto(rawURL string, raw []byte, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return &DecodeError{URL: rawURL, Err: errors.New("empty response body")}
	}

	var probe json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}

	if err := json.Unmarshal(probe, out); err != nil {
		return &DecodeError{URL: rawURL, Err: err}
	}
	return nil
}
