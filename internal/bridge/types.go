// Package bridge carries MCP confirmation requests from a host process to
// the popup UI and exactly one response back, over a local Unix socket with
// newline-delimited JSON framing.
package bridge

import "time"

// Socket communication constants
const (
	// ResponseTimeout is the maximum time the server waits for the UI to
	// produce a response before answering the host with a failure.
	ResponseTimeout = 30 * time.Minute

	// DeliverTimeout is the maximum time the server waits to hand a request
	// to the UI event loop.
	DeliverTimeout = 10 * time.Second

	// SocketWriteTimeout bounds writes so a stuck peer cannot block the
	// server goroutine indefinitely.
	SocketWriteTimeout = 10 * time.Second
)

// CancelledContent is the response content reported when the user dismisses
// a request without answering.
const CancelledContent = "User cancelled the operation"

// Request is one tool-invocation confirmation request. It is immutable after
// receipt.
type Request struct {
	ID                string   `json:"id"`
	Message           string   `json:"message"`
	PredefinedOptions []string `json:"predefined_options,omitempty"`
	IsMarkdown        bool     `json:"is_markdown"`
}

// Response is the single reply produced for a Request. Accepted is false for
// a cancellation. Auto marks a response synthesized by the timeout policy
// rather than typed by a human.
type Response struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Accepted bool   `json:"accepted"`
	Auto     bool   `json:"auto,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Cancelled builds the cancellation response for a request id.
func Cancelled(id string) Response {
	return Response{ID: id, Content: CancelledContent, Accepted: false}
}

// envelope is the wire frame: exactly one of the fields is set.
type envelope struct {
	Request  *Request  `json:"request,omitempty"`
	Response *Response `json:"response,omitempty"`
}

// Delivery pairs a request with its reply channel. The channel is buffered
// so the UI never blocks on emission; the server goroutine owning the
// connection consumes it.
type Delivery struct {
	Request Request
	Reply   chan Response
}

// NewDelivery wraps a request for handoff to the UI.
func NewDelivery(req Request) Delivery {
	return Delivery{Request: req, Reply: make(chan Response, 1)}
}
