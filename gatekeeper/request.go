package gatekeeper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Request describes one logical call to the backend.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON-encoded unless it is already []byte or json.RawMessage
	Header http.Header

	// SkipReauth sends the request once and returns whatever comes back.
	// Set it for calls whose own 401 is meaningful (login).
	SkipReauth bool

	// refreshed is set by the gatekeeper on the replay copy only.
	refreshed bool
}

func (r *Request) validate() error {
	if r == nil {
		return ErrNilRequest
	}
	if r.Method == "" {
		return ErrMissingMethod
	}
	return nil
}

// replay returns the copy that is sent after a successful refresh.
func (r *Request) replay() *Request {
	c := *r
	c.refreshed = true
	return &c
}

func (r *Request) encodeBody() ([]byte, error) {
	switch b := r.Body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	}
	payload, err := json.Marshal(r.Body)
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}
	return payload, nil
}

func (r *Request) httpRequest(ctx context.Context, base *url.URL, payload []byte, requestID string) (*http.Request, error) {
	u := *base
	u.Path = path.Join("/", base.Path, r.Path)
	if strings.HasSuffix(r.Path, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = r.Query.Encode()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, r.Method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", r.Method, r.Path, err)
	}
	for k, v := range r.Header {
		httpReq.Header[k] = append([]string(nil), v...)
	}
	if payload != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	return httpReq, nil
}
