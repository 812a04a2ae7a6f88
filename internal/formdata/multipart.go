package formdata

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/formbody/config"
	"github.com/indigo-web/formbody/http/form"
	"github.com/indigo-web/formbody/http/status"
	"github.com/indigo-web/formbody/internal/quota"
	"github.com/indigo-web/formbody/internal/urlencoded"
	"github.com/indigo-web/formbody/transport"
)

// RFC 2046, 5.1.1.
const maxBoundaryLen = 70

// sink receives the content bytes of one part. Both destinations satisfy the
// same contract, keeping the streaming loop agnostic of where bytes land.
type sink interface {
	append(b []byte) error
}

type memorySink struct {
	buf []byte
}

func (m *memorySink) append(b []byte) error {
	m.buf = append(m.buf, b...)
	return nil
}

type fileSink struct {
	file *os.File
}

func (f *fileSink) append(b []byte) error {
	if _, err := f.file.Write(b); err != nil {
		// a filesystem fault is the server's problem, not the client's
		log.Printf("formdata: writing %s: %s", f.file.Name(), err)
		return status.ErrInternalServerError
	}

	return nil
}

type multipartParser struct {
	client   transport.Client
	boundary string
	tempDir  string
	quotas   quota.Quotas
	prealloc int
	data     form.Data
	created  []string
	buff     []byte
}

// ParseMultipart drains the client, assembling parts into a form: parts with
// a filename stream into freshly created temporary files under tempDir and
// are charged against the files quota, the rest accumulate in memory against
// the body quota. Both collections come back sorted by field name.
//
// The second return value lists every temporary file created, whether the
// parse succeeded or not: the parser never deletes files itself, so on
// failure the list is what the caller's cleanup gets to sweep.
func ParseMultipart(
	cfg *config.Config, client transport.Client, boundary, tempDir string, quotas quota.Quotas,
) (form.Data, []string, error) {
	if len(boundary) == 0 || len(boundary) > maxBoundaryLen {
		return form.Data{}, nil, status.ErrBadRequest
	}

	p := &multipartParser{
		client:   client,
		boundary: boundary,
		tempDir:  tempDir,
		quotas:   quotas,
		prealloc: cfg.Body.Form.BufferPrealloc,
		data: form.Data{
			Values: make([]form.Pair, 0, cfg.Body.Form.EntriesPrealloc),
		},
	}

	if err := p.parse(); err != nil {
		return form.Data{}, p.created, err
	}

	return p.data, p.created, nil
}

func (p *multipartParser) parse() error {
	for {
		hdr, last, err := p.headers()
		if err != nil {
			return err
		}

		if last {
			break
		}

		final, err := p.body(hdr)
		if err != nil {
			return err
		}

		if final {
			break
		}
	}

	p.data.Sort()

	return nil
}

// headers runs the header state machine over as many chunks as the block
// needs. The completed block is charged against the body quota exactly; the
// look-ahead past it goes back to the client uncharged.
func (p *multipartParser) headers() (hdr partHeader, last bool, err error) {
	parser := newHeaderParser(p.boundary)
	fed := 0

	for {
		chunk, err := p.read()
		if err != nil {
			return hdr, false, err
		}

		fed += len(chunk)

		res, done, err := parser.next(chunk)
		if err != nil {
			return hdr, false, err
		}

		if !done {
			// every byte fed so far precedes the yet unseen terminator, so
			// the eventual charge is at least fed: bail out as soon as the
			// accumulating block alone cannot fit the budget
			if fed > p.quotas.Body {
				return hdr, false, status.ErrBodyTooLarge
			}

			continue
		}

		if p.quotas, err = p.quotas.DecrBody(fed - len(res.leftover)); err != nil {
			return hdr, false, err
		}

		p.client.Unread(res.leftover)

		if res.last {
			return hdr, true, nil
		}

		// names travel percent-encoded
		hdr = res.hdr
		hdr.name, p.buff, err = urlencoded.DecodeString(hdr.name, p.buff)
		if err != nil {
			return hdr, false, err
		}

		hdr.filename, p.buff, err = urlencoded.DecodeString(hdr.filename, p.buff)

		return hdr, false, err
	}
}

func (p *multipartParser) body(hdr partHeader) (final bool, err error) {
	parser := newBodyParser(p.boundary)

	if len(hdr.filename) > 0 {
		file, err := p.tempFile()
		if err != nil {
			return false, err
		}

		p.created = append(p.created, file.Name())
		final, err = p.stream(parser, &fileSink{file}, quota.Quotas.DecrFiles)
		closeErr := file.Close()
		if err != nil {
			return false, err
		}

		if closeErr != nil {
			log.Printf("formdata: closing %s: %s", file.Name(), closeErr)
			return false, status.ErrInternalServerError
		}

		p.data.Files = append(p.data.Files, form.File{
			Name:     hdr.name,
			Filename: hdr.filename,
			Path:     file.Name(),
		})

		return final, nil
	}

	mem := &memorySink{buf: make([]byte, 0, p.prealloc)}
	final, err = p.stream(parser, mem, quota.Quotas.DecrBody)
	if err != nil {
		return false, err
	}

	if !utf8.Valid(mem.buf) {
		return false, status.ErrBadCharset
	}

	p.data.Values = append(p.data.Values, form.Pair{Name: hdr.name, Value: string(mem.buf)})

	return final, nil
}

// stream pushes body chunks into the sink until the boundary turns up. Every
// chunk is charged as read; the completing step hands the delimiter overhead
// back: the CRLF opening it and, on the final boundary, the closing dashes
// never count as content.
func (p *multipartParser) stream(
	parser *bodyParser, dst sink, charge func(quota.Quotas, int) (quota.Quotas, error),
) (final bool, err error) {
	for {
		chunk, err := p.read()
		if err != nil {
			return false, err
		}

		res := parser.next(chunk)
		used := len(chunk)
		if res.done {
			used = len(chunk) - len(res.remaining) - 2
			if res.final {
				used -= 4 + len(p.boundary)
			}
		}

		if p.quotas, err = charge(p.quotas, used); err != nil {
			return false, err
		}

		if err = dst.append(res.content); err != nil {
			return false, err
		}

		if !res.done {
			continue
		}

		p.client.Unread(res.remaining)

		return res.final, nil
	}
}

func (p *multipartParser) read() ([]byte, error) {
	chunk, err := p.client.Read()
	switch err {
	case nil:
		return chunk, nil
	case io.EOF:
		if len(chunk) > 0 {
			// the transport may deliver trailing data and EOF together;
			// the repeated EOF arrives on the next read
			return chunk, nil
		}

		// the stream ended before the closing boundary
		return nil, status.ErrBadRequest
	default:
		return nil, err
	}
}

func (p *multipartParser) tempFile() (*os.File, error) {
	path := filepath.Join(p.tempDir, "formbody-"+uniuri.New())

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		log.Printf("formdata: creating %s: %s", path, err)
		return nil, status.ErrInternalServerError
	}

	return file, nil
}
