package formdata

import (
	"os"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/formbody/config"
	"github.com/indigo-web/formbody/http/form"
	"github.com/indigo-web/formbody/http/status"
	"github.com/indigo-web/formbody/internal/quota"
	"github.com/indigo-web/formbody/transport/dummy"
	"github.com/stretchr/testify/require"
)

const twoParts = "--X\r\n" +
	"Content-Disposition: form-data; name=\"a\"\r\n" +
	"\r\n" +
	"1\r\n" +
	"--X\r\n" +
	"Content-Disposition: form-data; name=\"f\"; filename=\"t.txt\"\r\n" +
	"\r\n" +
	"hi\r\n" +
	"--X--\r\n"

func parse(
	t *testing.T, payload string, chunkLen, bodyLimit, filesLimit int,
) (form.Data, []string, error) {
	t.Helper()

	client := dummy.NewSplit([]byte(payload), chunkLen)

	return ParseMultipart(
		config.Default(), client, "X", t.TempDir(), quota.New(bodyLimit, filesLimit),
	)
}

func TestParseMultipart(t *testing.T) {
	t.Run("value and file", func(t *testing.T) {
		data, created, err := parse(t, twoParts, len(twoParts), 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a", Value: "1"}}, data.Values)
		require.Len(t, data.Files, 1)
		require.Equal(t, "f", data.Files[0].Name)
		require.Equal(t, "t.txt", data.Files[0].Filename)
		require.Equal(t, []string{data.Files[0].Path}, created)

		content, err := os.ReadFile(data.Files[0].Path)
		require.NoError(t, err)
		require.Equal(t, "hi", string(content))
	})

	t.Run("empty form", func(t *testing.T) {
		data, created, err := parse(t, "--X--\r\n", 1024, 1000, 1000)
		require.NoError(t, err)
		require.Empty(t, data.Values)
		require.Empty(t, data.Files)
		require.Empty(t, created)
	})

	t.Run("values are sorted by name", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"c\"\r\n\r\n3\r\n" +
			"--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n1\r\n" +
			"--X\r\nContent-Disposition: form-data; name=\"b\"\r\n\r\n2\r\n" +
			"--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{
			{Name: "a", Value: "1"}, {Name: "b", Value: "2"}, {Name: "c", Value: "3"},
		}, data.Values)
	})

	t.Run("repeated names keep wire order", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"k\"\r\n\r\nfirst\r\n" +
			"--X\r\nContent-Disposition: form-data; name=\"k\"\r\n\r\nsecond\r\n" +
			"--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{
			{Name: "k", Value: "first"}, {Name: "k", Value: "second"},
		}, data.Values)
	})

	t.Run("boundary lookalike inside content", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n" +
			"ab\r\n--Xcd\r\n" +
			"--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a", Value: "ab\r\n--Xcd"}}, data.Values)
	})

	t.Run("file content with embedded crlf", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"f\"; filename=\"a.txt\"\r\n\r\n" +
			"line1\r\nline2\r\n" +
			"--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Len(t, data.Files, 1)

		content, err := os.ReadFile(data.Files[0].Path)
		require.NoError(t, err)
		require.Equal(t, "line1\r\nline2", string(content))
	})

	t.Run("empty value", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n\r\n--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a", Value: ""}}, data.Values)
	})

	t.Run("percent-encoded name", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a%20b\"\r\n\r\nv\r\n--X--\r\n"
		data, _, err := parse(t, payload, 1024, 1000, 1000)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a b", Value: "v"}}, data.Values)
	})
}

func TestParseMultipartChunking(t *testing.T) {
	want := func(t *testing.T, data form.Data, created []string, err error) {
		t.Helper()
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a", Value: "1"}}, data.Values)
		require.Len(t, data.Files, 1)

		content, readErr := os.ReadFile(data.Files[0].Path)
		require.NoError(t, readErr)
		require.Equal(t, "hi", string(content))
	}

	// the parse result must not depend on how the network sliced the
	// payload, mid-header and mid-boundary splits included
	for _, chunkLen := range []int{1, 2, 3, 5, 7, 16, len(twoParts)} {
		data, created, err := parse(t, twoParts, chunkLen, 1000, 1000)
		want(t, data, created, err)
	}
}

func TestParseMultipartQuotas(t *testing.T) {
	t.Run("file quota exceeded", func(t *testing.T) {
		data, created, err := parse(t, twoParts, len(twoParts), 1000, 1)
		require.Equal(t, status.ErrBodyTooLarge, err)
		require.Empty(t, data.Values)
		require.Empty(t, data.Files)
		// the temp file was already created and stays for cleanup to sweep
		require.Len(t, created, 1)
		require.FileExists(t, created[0])
	})

	t.Run("body quota exceeded", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n" +
			strings.Repeat("v", 64) +
			"\r\n--X--\r\n"
		_, _, err := parse(t, payload, 1024, 60, 1000)
		require.Equal(t, status.ErrBodyTooLarge, err)
	})

	t.Run("quotas are independent", func(t *testing.T) {
		// 2 bytes of file content must not touch the body budget: the body
		// quota is exactly the header overhead plus the single value byte
		headers := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n" +
			"--X\r\nContent-Disposition: form-data; name=\"f\"; filename=\"t.txt\"\r\n\r\n"
		exact := len(headers) + len("1")

		data, _, err := parse(t, twoParts, len(twoParts), exact, 2)
		require.NoError(t, err)
		require.Equal(t, []form.Pair{{Name: "a", Value: "1"}}, data.Values)

		_, _, err = parse(t, twoParts, len(twoParts), exact-1, 2)
		require.Equal(t, status.ErrBodyTooLarge, err)

		_, _, err = parse(t, twoParts, len(twoParts), exact, 1)
		require.Equal(t, status.ErrBodyTooLarge, err)
	})

	t.Run("delimiter overhead is not content", func(t *testing.T) {
		// pinned arithmetic: the CRLF before a boundary and the closing
		// delimiter are excluded, so the body budget covers exactly the
		// header block and the value bytes
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nhello\r\n--X--\r\n"
		exact := len("--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n") + len("hello")

		_, _, err := parse(t, payload, len(payload), exact, 0)
		require.NoError(t, err)

		_, _, err = parse(t, payload, len(payload), exact-1, 0)
		require.Equal(t, status.ErrBodyTooLarge, err)
	})

	t.Run("overflow aborts before further reads", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n" +
			strings.Repeat("v", 100) +
			"\r\n--X--\r\n"
		client := dummy.NewSplit([]byte(payload), 10)

		_, _, err := ParseMultipart(
			config.Default(), client, "X", t.TempDir(), quota.New(55, 0),
		)
		require.Equal(t, status.ErrBodyTooLarge, err)

		// at least the tail of the payload was never pulled
		chunk, readErr := client.Read()
		require.NoError(t, readErr)
		require.NotEmpty(t, chunk)
	})
}

func TestParseMultipartMalformed(t *testing.T) {
	t.Run("non-utf8 value", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\n\xff\xfe\r\n--X--\r\n"
		_, _, err := parse(t, payload, 1024, 1000, 1000)
		require.Equal(t, status.BadRequest, status.CodeOf(err))
	})

	t.Run("missing name", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; filename=\"t.txt\"\r\n\r\nhi\r\n--X--\r\n"
		_, _, err := parse(t, payload, 1024, 1000, 1000)
		require.Equal(t, status.ErrBadDisposition, err)
	})

	t.Run("no disposition at all", func(t *testing.T) {
		payload := "--X\r\nContent-Type: text/plain\r\n\r\nhi\r\n--X--\r\n"
		_, _, err := parse(t, payload, 1024, 1000, 1000)
		require.Equal(t, status.ErrBadDisposition, err)
	})

	t.Run("payload not opening with the boundary", func(t *testing.T) {
		_, _, err := parse(t, "garbage\r\n--X--\r\n", 1024, 1000, 1000)
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("truncated payload", func(t *testing.T) {
		payload := "--X\r\nContent-Disposition: form-data; name=\"a\"\r\n\r\nnever closed"
		_, _, err := parse(t, payload, 1024, 1000, 1000)
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("empty boundary", func(t *testing.T) {
		client := dummy.NewClient([]byte("----\r\n"))
		_, _, err := ParseMultipart(
			config.Default(), client, "", t.TempDir(), quota.New(1000, 1000),
		)
		require.Equal(t, status.ErrBadRequest, err)
	})

	t.Run("oversized boundary", func(t *testing.T) {
		boundary := uniuri.NewLen(maxBoundaryLen + 1)
		client := dummy.NewClient([]byte("--" + boundary + "--\r\n"))
		_, _, err := ParseMultipart(
			config.Default(), client, boundary, t.TempDir(), quota.New(1000, 1000),
		)
		require.Equal(t, status.ErrBadRequest, err)
	})
}

func TestParseMultipartRandomized(t *testing.T) {
	// a couple of larger, randomly generated fields driven through small
	// chunks must survive untouched
	first, second := uniuri.NewLen(300), uniuri.NewLen(500)
	payload := "--X\r\nContent-Disposition: form-data; name=\"first\"\r\n\r\n" + first +
		"\r\n--X\r\nContent-Disposition: form-data; name=\"second\"\r\n\r\n" + second +
		"\r\n--X--\r\n"

	data, _, err := parse(t, payload, 11, 2048, 0)
	require.NoError(t, err)
	require.Equal(t, []form.Pair{
		{Name: "first", Value: first}, {Name: "second", Value: second},
	}, data.Values)
}
