// Package obsws is a minimal obs-websocket v5 client: it authenticates,
// sends requests, and waits for their responses. Events are read and
// discarded.
package obsws

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Protocol opcodes.
const (
	OpHello           = 0
	OpIdentify        = 1
	OpIdentified      = 2
	OpEvent           = 5
	OpRequest         = 6
	OpRequestResponse = 7
)

const rpcVersion = 1

// ErrAuthRequired is returned when the server requires a password and none was given.
var ErrAuthRequired = errors.New("obs-websocket requires a password")

type message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

type hello struct {
	ObsWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Authentication      *struct {
		Challenge string `json:"challenge"`
		Salt      string `json:"salt"`
	} `json:"authentication"`
}

type identify struct {
	RPCVersion     int    `json:"rpcVersion"`
	Authentication string `json:"authentication,omitempty"`
}

type request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

type requestResponse struct {
	RequestType   string `json:"requestType"`
	RequestID     string `json:"requestId"`
	RequestStatus struct {
		Result  bool   `json:"result"`
		Code    int    `json:"code"`
		Comment string `json:"comment"`
	} `json:"requestStatus"`
	ResponseData json.RawMessage `json:"responseData"`
}

// RequestError reports a request the server rejected.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("obs %s failed (%d): %s", e.RequestType, e.Code, e.Comment)
	}
	return fmt.Sprintf("obs %s failed (%d)", e.RequestType, e.Code)
}

// Client is an identified obs-websocket session. Requests are serialized.
type Client struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	version string
}

// Dial connects to url and completes the Hello/Identify handshake.
func Dial(ctx context.Context, url, password string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connect to obs-websocket at %s: %w", url, err)
	}
	client := &Client{conn: conn}
	if err := client.identify(ctx, password); err != nil {
		conn.Close()
		return nil, err
	}
	return client, nil
}

func (c *Client) identify(ctx context.Context, password string) error {
	var msg message
	if err := c.read(ctx, &msg); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	if msg.Op != OpHello {
		return fmt.Errorf("expected hello, got op %d", msg.Op)
	}
	var h hello
	if err := json.Unmarshal(msg.D, &h); err != nil {
		return fmt.Errorf("decode hello: %w", err)
	}
	c.version = h.ObsWebSocketVersion

	id := identify{RPCVersion: rpcVersion}
	if h.Authentication != nil {
		if password == "" {
			return ErrAuthRequired
		}
		id.Authentication = authResponse(password, h.Authentication.Salt, h.Authentication.Challenge)
	}
	if err := c.write(ctx, OpIdentify, id); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}
	if err := c.read(ctx, &msg); err != nil {
		return fmt.Errorf("read identified: %w", err)
	}
	if msg.Op != OpIdentified {
		return fmt.Errorf("expected identified, got op %d", msg.Op)
	}
	return nil
}

// authResponse computes base64(sha256(base64(sha256(password+salt)) + challenge)).
func authResponse(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

// ServerVersion returns the obs-websocket version reported in Hello.
func (c *Client) ServerVersion() string {
	return c.version
}

// Request sends requestType with data and returns the response payload.
func (c *Client) Request(ctx context.Context, requestType string, data any) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.NewString()
	if err := c.write(ctx, OpRequest, request{RequestType: requestType, RequestID: id, RequestData: data}); err != nil {
		return nil, fmt.Errorf("send %s: %w", requestType, err)
	}
	for {
		var msg message
		if err := c.read(ctx, &msg); err != nil {
			return nil, fmt.Errorf("await %s: %w", requestType, err)
		}
		if msg.Op != OpRequestResponse {
			continue
		}
		var resp requestResponse
		if err := json.Unmarshal(msg.D, &resp); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", requestType, err)
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return nil, &RequestError{RequestType: requestType, Code: resp.RequestStatus.Code, Comment: resp.RequestStatus.Comment}
		}
		return resp.ResponseData, nil
	}
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *Client) write(ctx context.Context, op int, d any) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	data, err := json.Marshal(message{Op: op, D: payload})
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(deadline)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) read(ctx context.Context, msg *message) error {
	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetReadDeadline(deadline)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, msg)
}
