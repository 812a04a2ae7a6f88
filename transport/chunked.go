package transport

import (
	"io"

	"github.com/indigo-web/chunkedbody"
)

type chunked struct {
	inner   Client
	parser  *chunkedbody.Parser
	pending []byte
	trailer bool
	done    bool
}

// NewChunked decorates a client whose stream arrives chunked transfer-encoded,
// yielding the decoded payload. Bytes following the terminal zero-length chunk
// belong to the connection's next request and are unread to the inner client.
func NewChunked(inner Client, trailer bool) Client {
	return &chunked{
		inner:   inner,
		parser:  chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		trailer: trailer,
	}
}

func (c *chunked) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if c.done {
		return nil, io.EOF
	}

	data, err := c.inner.Read()
	if err != nil {
		return nil, err
	}

	chunk, extra, err := c.parser.Parse(data, c.trailer)
	switch err {
	case nil:
	case io.EOF:
		c.done = true
	default:
		return nil, err
	}

	if len(extra) > 0 {
		c.inner.Unread(extra)
	}

	return chunk, nil
}

func (c *chunked) Unread(b []byte) {
	c.pending = b
}

func (c *chunked) Close() error {
	return c.inner.Close()
}
