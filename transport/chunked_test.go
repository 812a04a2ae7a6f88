package transport

import (
	"io"
	"testing"

	"github.com/indigo-web/formbody/transport/dummy"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, client Client) string {
	t.Helper()

	var body []byte
	for {
		data, err := client.Read()
		body = append(body, data...)

		switch err {
		case nil:
		case io.EOF:
			return string(body)
		default:
			t.Fatal(err)
		}
	}
}

func TestChunked(t *testing.T) {
	t.Run("single piece", func(t *testing.T) {
		inner := dummy.NewClient([]byte("d\r\nHello, world!\r\n0\r\n\r\n"))
		require.Equal(t, "Hello, world!", readAll(t, NewChunked(inner, false)))
	})

	t.Run("multiple chunks", func(t *testing.T) {
		inner := dummy.NewClient([]byte("7\r\nMozilla\r\n9\r\nDeveloper\r\n7\r\nNetwork\r\n0\r\n\r\n"))
		require.Equal(t, "MozillaDeveloperNetwork", readAll(t, NewChunked(inner, false)))
	})

	t.Run("byte-by-byte delivery", func(t *testing.T) {
		inner := dummy.NewSplit([]byte("5\r\nhello\r\n0\r\n\r\n"), 1)
		require.Equal(t, "hello", readAll(t, NewChunked(inner, false)))
	})

	t.Run("extra returns to the inner client", func(t *testing.T) {
		inner := dummy.NewClient([]byte("5\r\nhello\r\n0\r\n\r\nGET / HTTP/1.1"))
		require.Equal(t, "hello", readAll(t, NewChunked(inner, false)))

		next, err := inner.Read()
		require.NoError(t, err)
		require.Equal(t, "GET / HTTP/1.1", string(next))
	})

	t.Run("unread", func(t *testing.T) {
		inner := dummy.NewClient([]byte("5\r\nhello\r\n0\r\n\r\n"))
		client := NewChunked(inner, false)

		data, err := client.Read()
		require.NoError(t, err)
		require.Equal(t, "hello", string(data))

		client.Unread(data[2:])
		require.Equal(t, "llo", readAll(t, client))
	})
}
