package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultRequestTimeout bounds a single backend call.
const DefaultRequestTimeout = 30 * time.Second

// request is the op-tagged envelope posted to the backend endpoint.
type request struct {
	Op         string `json:"op"`
	Path       string `json:"path"`
	Credential string `json:"credential"`
	Content    []byte `json:"content,omitempty"`
}

// response is the backend's envelope. Exactly one of the payload fields is
// set depending on the op; Ok=false carries the failure kind in Error.
type response struct {
	Ok      bool    `json:"ok"`
	Error   string  `json:"error,omitempty"`
	Entries []Entry `json:"entries,omitempty"`
	Info    *Info   `json:"info,omitempty"`
	Content []byte  `json:"content,omitempty"`
}

const (
	errKindNotFound = "not_found"
	errKindRejected = "rejected"
)

// HTTPClient talks to the record API over a single JSON endpoint.
type HTTPClient struct {
	endpoint string
	client   *http.Client
}

// NewHTTPClient creates a client for the given endpoint URL. A zero timeout
// falls back to DefaultRequestTimeout.
func NewHTTPClient(endpoint string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &HTTPClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) call(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", req.Op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("backend %s call: %w", req.Op, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return nil, fmt.Errorf("backend %s call: unexpected status %d", req.Op, httpResp.StatusCode)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", req.Op, err)
	}
	if !resp.Ok {
		switch resp.Error {
		case errKindNotFound:
			return nil, ErrNotFound
		case errKindRejected:
			return nil, ErrRejected
		default:
			return nil, fmt.Errorf("backend %s failed: %s", req.Op, resp.Error)
		}
	}
	return &resp, nil
}

func (c *HTTPClient) List(ctx context.Context, path, credential string) ([]Entry, error) {
	resp, err := c.call(ctx, request{Op: "list", Path: path, Credential: credential})
	if err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

func (c *HTTPClient) Retrieve(ctx context.Context, path, credential string) ([]byte, error) {
	resp, err := c.call(ctx, request{Op: "retrieve", Path: path, Credential: credential})
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

func (c *HTTPClient) Store(ctx context.Context, path string, content []byte, credential string) error {
	_, err := c.call(ctx, request{Op: "store", Path: path, Credential: credential, Content: content})
	return err
}

func (c *HTTPClient) Append(ctx context.Context, path string, content []byte, credential string) error {
	_, err := c.call(ctx, request{Op: "append", Path: path, Credential: credential, Content: content})
	return err
}

func (c *HTTPClient) Delete(ctx context.Context, path, credential string) error {
	_, err := c.call(ctx, request{Op: "delete", Path: path, Credential: credential})
	return err
}

func (c *HTTPClient) Stat(ctx context.Context, path, credential string) (Info, error) {
	resp, err := c.call(ctx, request{Op: "stat", Path: path, Credential: credential})
	if err != nil {
		return Info{}, err
	}
	if resp.Info == nil {
		return Info{}, fmt.Errorf("backend stat: response missing info")
	}
	return *resp.Info, nil
}
