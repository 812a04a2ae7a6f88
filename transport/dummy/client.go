package dummy

import (
	"io"

	"github.com/indigo-web/formbody/transport"
)

var _ transport.Client = new(Client)

// Client plays back a script of chunks, one per Read, then reports io.EOF.
// Unread bytes take priority over the script, making it a drop-in stand-in
// for a real connection in parser tests.
type Client struct {
	data    [][]byte
	pointer int
	tmp     []byte
	closed  bool
}

func NewClient(data ...[]byte) *Client {
	return &Client{data: data}
}

// NewSplit cuts a single payload into chunks of at most n bytes each,
// imitating a network delivering the body in arbitrary pieces.
func NewSplit(payload []byte, n int) *Client {
	var chunks [][]byte
	for len(payload) > n {
		chunks = append(chunks, payload[:n])
		payload = payload[n:]
	}

	return NewClient(append(chunks, payload)...)
}

func (c *Client) Read() ([]byte, error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data := c.tmp
		c.tmp = nil

		return data, nil
	}

	if c.pointer >= len(c.data) {
		return nil, io.EOF
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *Client) Unread(b []byte) {
	c.tmp = b
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}
