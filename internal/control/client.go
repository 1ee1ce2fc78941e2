package control

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Client talks to a running daemon's control server.
type Client struct {
	base   string
	token  string
	http   *http.Client
	nextID atomic.Int64
}

// NewClient returns a client for the server at addr (host:port or URL).
func NewClient(addr, token string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &Client{
		base:  strings.TrimSuffix(base, "/"),
		token: token,
		http:  &http.Client{Timeout: WriteTimeout},
	}
}

// Call invokes method and decodes the result into out (which may be nil).
func (c *Client) Call(ctx context.Context, method string, params, out interface{}) error {
	req := struct {
		JSONRPC string      `json:"jsonrpc"`
		Method  string      `json:"method"`
		Params  interface{} `json:"params,omitempty"`
		ID      int64       `json:"id"`
	}{"2.0", method, params, c.nextID.Add(1)}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/rpc", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: %s", method, resp.Status)
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *RPCError       `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

// List returns every attribute.
func (c *Client) List(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	err := c.Call(ctx, "attr.list", nil, &out)
	return out, err
}

// Get returns one attribute.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	var out AttrResult
	if err := c.Call(ctx, "attr.get", AttrParams{Name: name}, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// Set writes one attribute and returns the value read back.
func (c *Client) Set(ctx context.Context, name, value string) (string, error) {
	var out AttrResult
	if err := c.Call(ctx, "attr.set", AttrParams{Name: name, Value: value}, &out); err != nil {
		return "", err
	}
	return out.Value, nil
}

// SetDisplay reports a display power transition.
func (c *Client) SetDisplay(ctx context.Context, off bool) error {
	return c.Call(ctx, "display.set", DisplayParams{Off: off}, nil)
}

// Status returns the daemon status.
func (c *Client) Status(ctx context.Context) (StatusResult, error) {
	var out StatusResult
	err := c.Call(ctx, "status", nil, &out)
	return out, err
}

// Watch streams events to fn until ctx is cancelled or the server closes
// the connection. Each event is passed to fn as raw JSON.
func (c *Client) Watch(ctx context.Context, fn func(topic string, event json.RawMessage)) error {
	wsURL := "ws" + strings.TrimPrefix(c.base, "http") + "/events"
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		var env struct {
			Topic string          `json:"topic"`
			Event json.RawMessage `json:"event"`
		}
		if err := conn.ReadJSON(&env); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("event stream: %w", err)
		}
		fn(env.Topic, env.Event)
	}
}
