package http

import (
	"io"

	"github.com/indigo-web/formbody/config"
	"github.com/indigo-web/formbody/http/form"
	"github.com/indigo-web/formbody/http/mime"
	"github.com/indigo-web/formbody/http/status"
	"github.com/indigo-web/formbody/internal/formdata"
	"github.com/indigo-web/formbody/internal/quota"
	"github.com/indigo-web/formbody/internal/strutil"
	"github.com/indigo-web/formbody/transport"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Connection bundles a request's body stream with everything governing its
// consumption. The value is owned by the request for its lifetime and never
// mutated in place: the With* modifiers return updated copies, so a single
// handler can tighten limits without touching anyone else's.
type Connection struct {
	Client        transport.Client
	MaxBodySize   int
	MaxFilesSize  int
	ReadChunkSize int
	TempDir       string
	SecretKeyBase string
}

func NewConnection(client transport.Client, cfg *config.Config) Connection {
	return Connection{
		Client:        client,
		MaxBodySize:   cfg.Body.MaxSize,
		MaxFilesSize:  cfg.Body.MaxFilesSize,
		ReadChunkSize: cfg.NET.ReadChunkSize,
		TempDir:       cfg.TempDir,
		SecretKeyBase: cfg.SecretKeyBase,
	}
}

func (c Connection) WithMaxBodySize(n int) Connection {
	c.MaxBodySize = n
	return c
}

func (c Connection) WithMaxFilesSize(n int) Connection {
	c.MaxFilesSize = n
	return c
}

func (c Connection) WithReadChunkSize(n int) Connection {
	c.ReadChunkSize = n
	return c
}

func (c Connection) WithTempDir(dir string) Connection {
	c.TempDir = dir
	return c
}

func (c Connection) WithSecretKeyBase(secret string) Connection {
	c.SecretKeyBase = secret
	return c
}

var errUnsupportedForm = status.NewError(
	status.UnsupportedMediaType,
	"unsupported media type: expected "+mime.Multipart+" or "+mime.FormUrlencoded,
)

// Body is the caller-facing surface over a request body.
type Body struct {
	conn      Connection
	cfg       *config.Config
	buff      []byte
	pending   []byte
	tempFiles []string
	error     error
}

func NewBody(conn Connection, cfg *config.Config) *Body {
	return &Body{
		conn: conn,
		cfg:  cfg,
	}
}

// Bytes returns the whole body at once, bounded by the in-memory quota.
func (b *Body) Bytes() ([]byte, error) {
	if len(b.buff) != 0 {
		return b.buff, nil
	}

	if b.error != nil {
		return nil, b.error
	}

	quotas := quota.New(b.conn.MaxBodySize, 0)
	b.buff = make([]byte, 0, b.cfg.Body.Form.BufferPrealloc)

	for {
		data, err := b.conn.Client.Read()
		if err != nil && err != io.EOF {
			b.error = err
			return nil, err
		}

		if quotas, b.error = quotas.DecrBody(len(data)); b.error != nil {
			return nil, b.error
		}

		b.buff = append(b.buff, data...)

		if err == io.EOF {
			return b.buff, nil
		}
	}
}

// String returns the whole body at once in a string representation.
func (b *Body) String() (string, error) {
	bytes, err := b.Bytes()
	return uf.B2S(bytes), err
}

// Read implements the io.Reader interface.
func (b *Body) Read(into []byte) (n int, err error) {
	if len(b.pending) == 0 && b.error == nil {
		b.pending, b.error = b.conn.Client.Read()
	}

	n = copy(into, b.pending)
	b.pending = b.pending[n:]

	if len(b.pending) == 0 && b.error != nil {
		err = b.error
	}

	return n, err
}

// JSON convoys the body to a json unmarshaller and behaves in a similar
// manner. The body is read in full first, so the in-memory quota applies.
func (b *Body) JSON(model any) error {
	data, err := b.Bytes()
	if err != nil {
		return err
	}

	iterator := json.ConfigDefault.BorrowIterator(data)
	iterator.ReadVal(model)
	err = iterator.Error
	json.ConfigDefault.ReturnIterator(iterator)

	if err != nil && err != io.EOF {
		return status.ErrBadRequest
	}

	return nil
}

// Form parses the body as a form according to the content type:
// application/x-www-form-urlencoded is decoded in memory, multipart/form-data
// is streamed part by part with uploads landing in temporary files. Any other
// content type, or none at all, is rejected with a 415. Both collections of
// the result are sorted by field name.
//
// No partial form ever escapes: on any failure the returned data is empty,
// and whatever temporary files were already created remain on disk for
// TempFiles-driven cleanup.
func (b *Body) Form(contentType string) (form.Data, error) {
	if len(contentType) == 0 {
		return form.Data{}, errUnsupportedForm
	}

	switch {
	case mime.Complies(mime.FormUrlencoded, contentType):
		data, err := b.Bytes()
		if err != nil {
			return form.Data{}, err
		}

		return formdata.ParseURLEncoded(b.cfg, data)
	case mime.Complies(mime.Multipart, contentType):
		_, params := strutil.CutHeader(contentType)
		boundary, ok := boundaryOf(params)
		if !ok {
			return form.Data{}, status.ErrBadRequest
		}

		quotas := quota.New(b.conn.MaxBodySize, b.conn.MaxFilesSize)
		data, created, err := formdata.ParseMultipart(
			b.cfg, b.conn.Client, boundary, b.conn.TempDir, quotas,
		)
		b.tempFiles = append(b.tempFiles, created...)

		return data, err
	default:
		return form.Data{}, errUnsupportedForm
	}
}

// TempFiles lists every temporary file created while parsing forms on this
// body, including ones left behind by a failed parse. Deleting them once the
// request is served is the caller's job; the parser never removes files.
func (b *Body) TempFiles() []string {
	return b.tempFiles
}

func boundaryOf(params string) (string, bool) {
	for key, value := range strutil.WalkKV(params) {
		if key == "boundary" && len(value) > 0 {
			return value, true
		}
	}

	return "", false
}
