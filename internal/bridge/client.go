package bridge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client is the host-side half of the bridge: it sends one request and waits
// for the response.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to a running popup UI.
func Dial(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// IsRunning reports whether a popup UI is listening on the socket.
func IsRunning(socketPath string) bool {
	conn, err := net.DialTimeout("unix", socketPath, time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Send delivers a request and blocks until the response arrives or timeout
// elapses. A zero timeout waits for the server's own response deadline.
func (c *Client) Send(req Request, timeout time.Duration) (Response, error) {
	data, err := json.Marshal(envelope{Request: &req})
	if err != nil {
		return Response{}, err
	}

	c.conn.SetWriteDeadline(time.Now().Add(SocketWriteTimeout))
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		return Response{}, fmt.Errorf("write request: %w", err)
	}

	if timeout == 0 {
		c.conn.SetReadDeadline(time.Time{})
	} else {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
	}

	line, err := c.reader.ReadString('\n')
	if err != nil {
		return Response{}, fmt.Errorf("read response: %w", err)
	}

	var msg envelope
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return Response{}, err
	}
	if msg.Response == nil {
		return Response{}, fmt.Errorf("expected response envelope, got none")
	}
	if msg.Response.Error != "" {
		return *msg.Response, fmt.Errorf("request rejected: %s", msg.Response.Error)
	}

	return *msg.Response, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
