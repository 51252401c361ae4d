// Package tushare implements the upstream data-API client. The rest of
// the gateway treats it as an opaque callable keyed by api name.
package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Tushare HTTP endpoint.
const DefaultBaseURL = "https://api.tushare.pro"

// Invoker dispatches one upstream call by api name. The executor
// depends on this interface, not on the HTTP client, so validation and
// shaping stay testable without the network.
type Invoker interface {
	Invoke(ctx context.Context, apiName string, params map[string]interface{}) (*Payload, error)
}

// Payload is one upstream response. Tabular responses carry Fields and
// Items; anything else passes through in Raw.
type Payload struct {
	Fields  []string
	Items   [][]interface{}
	HasMore bool
	Raw     json.RawMessage
}

// IsTabular reports whether the payload is rows-of-records data.
func (p *Payload) IsTabular() bool {
	return len(p.Fields) > 0
}

// Client calls the Tushare HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a client for the production endpoint.
func NewClient(token string) *Client {
	return NewClientWithBaseURL(token, DefaultBaseURL)
}

// NewClientWithBaseURL builds a client against an alternate endpoint,
// used by tests.
func NewClientWithBaseURL(token, baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiRequest struct {
	APIName string                 `json:"api_name"`
	Token   string                 `json:"token"`
	Params  map[string]interface{} `json:"params"`
	Fields  string                 `json:"fields"`
}

type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type tableData struct {
	Fields  []string        `json:"fields"`
	Items   [][]interface{} `json:"items"`
	HasMore bool            `json:"has_more"`
}

// Invoke posts one api call and decodes the response. A non-zero
// upstream code becomes an error carrying the upstream message.
func (c *Client) Invoke(ctx context.Context, apiName string, params map[string]interface{}) (*Payload, error) {
	if c.token == "" {
		return nil, fmt.Errorf("missing Tushare token: set TUSHARE_TOKEN (or TS_TOKEN)")
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	body, err := json.Marshal(apiRequest{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request for %s: %w", apiName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", apiName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", apiName, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", apiName, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned HTTP %d", apiName, resp.StatusCode)
	}

	var decoded apiResponse
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", apiName, err)
	}
	if decoded.Code != 0 {
		return nil, fmt.Errorf("%s failed upstream (code %d): %s", apiName, decoded.Code, decoded.Msg)
	}

	payload := &Payload{Raw: decoded.Data}
	var table tableData
	if len(decoded.Data) > 0 && json.Unmarshal(decoded.Data, &table) == nil && len(table.Fields) > 0 {
		payload.Fields = table.Fields
		payload.Items = table.Items
		payload.HasMore = table.HasMore
	}
	return payload, nil
}
