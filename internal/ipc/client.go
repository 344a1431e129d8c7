package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"wax/internal/recognizer"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// StartSession starts a session with the named recorders.
func (c *Client) StartSession(recorders []string) (*SessionInfo, error) {
	var resp StartSessionResponse
	if err := c.call("StartSession", StartSessionRequest{Recorders: recorders}, &resp); err != nil {
		return nil, err
	}
	return resp.Session, resp.Err()
}

// StopSession stops the live session.
func (c *Client) StopSession() (*SessionInfo, error) {
	var resp StopSessionResponse
	if err := c.call("StopSession", StopSessionRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Session, resp.Err()
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PrePhrase forwards a pre-phrase event.
func (c *Client) PrePhrase(event recognizer.PrePhrase) (*PhraseResponse, error) {
	var resp PhraseResponse
	if err := c.call("PrePhrase", PrePhraseRequest{Event: event}, &resp); err != nil {
		return nil, err
	}
	return &resp, resp.Err()
}

// PostPhrase forwards a post-phrase event.
func (c *Client) PostPhrase(event recognizer.PostPhrase) (*PhraseResponse, error) {
	var resp PhraseResponse
	if err := c.call("PostPhrase", PostPhraseRequest{Event: event}, &resp); err != nil {
		return nil, err
	}
	return &resp, resp.Err()
}

// Screenshot takes a named screenshot.
func (c *Client) Screenshot(name string) error {
	var resp ScreenshotResponse
	if err := c.call("Screenshot", ScreenshotRequest{Name: name}, &resp); err != nil {
		return err
	}
	return resp.Err()
}

// TestNotification sends a test notification.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
