package transport

import (
	"net"
	"time"
)

// Client is the pull-chunk primitive the body parsers consume. Read returns
// the next piece of the request body, or io.EOF once the stream is over.
// Bytes handed to Unread are replayed by the next Read before any new data
// is pulled, which is how parsers give back look-ahead they didn't consume.
type Client interface {
	Read() ([]byte, error)
	Unread([]byte)
	Close() error
}

type client struct {
	conn    net.Conn
	buff    []byte
	pending []byte
	timeout time.Duration
}

// NewClient wraps a net.Conn. Each Read pulls at most buffSize bytes, so
// buffSize acts as the read chunk size hint, and refreshes the read deadline
// beforehand. The returned slice is only valid until the next Read.
func NewClient(conn net.Conn, timeout time.Duration, buffSize int) Client {
	return &client{
		conn:    conn,
		buff:    make([]byte, buffSize),
		timeout: timeout,
	}
}

func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		pending := c.pending
		c.pending = nil

		return pending, nil
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)

	return c.buff[:n], err
}

func (c *client) Unread(b []byte) {
	c.pending = b
}

func (c *client) Close() error {
	return c.conn.Close()
}
