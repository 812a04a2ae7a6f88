package formdata

import (
	"strings"

	"github.com/indigo-web/formbody/http/status"
	"github.com/indigo-web/formbody/internal/strutil"
	"github.com/indigo-web/utils/uf"
)

type partHeader struct {
	name        string
	filename    string
	contentType string
}

type headersResult struct {
	hdr partHeader
	// leftover carries the bytes read past the header block, which open the
	// part's body.
	leftover []byte
	// last reports that the closing marker stood in place of another part.
	last bool
}

// headerParser recognizes one part header block: the boundary line followed
// by header lines through the terminating blank line. The block may arrive
// split across arbitrarily many chunks; the parser is an explicit resumable
// state value, fed via next until it reports completion.
type headerParser struct {
	delimiter string
	buf       []byte
}

func newHeaderParser(boundary string) *headerParser {
	return &headerParser{delimiter: "--" + boundary}
}

// next feeds the parser another chunk. done=false means the block is still
// incomplete and the accumulated state is retained for the following call.
func (p *headerParser) next(chunk []byte) (res headersResult, done bool, err error) {
	p.buf = append(p.buf, chunk...)
	data := uf.B2S(p.buf)

	// the payload must open with the boundary line; verify as far as the
	// data goes
	prefix := min(len(data), len(p.delimiter))
	if data[:prefix] != p.delimiter[:prefix] {
		return res, false, status.ErrBadRequest
	}

	if len(data) < len(p.delimiter)+2 {
		return res, false, nil
	}

	switch data[len(p.delimiter) : len(p.delimiter)+2] {
	case "--":
		res.last = true
		res.leftover = p.buf[len(p.delimiter)+2:]

		return res, true, nil
	case "\r\n":
	default:
		return res, false, status.ErrBadRequest
	}

	lines := len(p.delimiter) + 2
	end := strings.Index(data[len(p.delimiter):], "\r\n\r\n")
	if end == -1 {
		return res, false, nil
	}
	end += len(p.delimiter)

	res.hdr, err = parseBlock(data[lines : end+2])
	if err != nil {
		return res, false, err
	}

	res.leftover = p.buf[end+4:]

	return res, true, nil
}

// parseBlock walks the CRLF-terminated header lines of a completed block.
// Headers other than Content-Disposition and Content-Type are ignored.
func parseBlock(lines string) (hdr partHeader, err error) {
	for len(lines) > 0 {
		var line string
		line, lines, _ = strings.Cut(lines, "\r\n")

		switch {
		case foldPrefix(line, "content-disposition:"):
			hdr, err = parseDisposition(strutil.LStripWS(line[len("content-disposition:"):]), hdr)
		case foldPrefix(line, "content-type:"):
			hdr.contentType = strutil.LStripWS(line[len("content-type:"):])
		}

		if err != nil {
			return hdr, err
		}
	}

	if len(hdr.name) == 0 {
		return hdr, status.ErrBadDisposition
	}

	return hdr, nil
}

func parseDisposition(value string, hdr partHeader) (partHeader, error) {
	kind, params := strutil.CutHeader(value)
	if kind != "form-data" {
		return hdr, status.ErrBadDisposition
	}

	for key, value := range strutil.WalkKV(params) {
		if len(key) == 0 {
			return hdr, status.ErrBadDisposition
		}

		switch key {
		case "name":
			hdr.name = value
		case "filename":
			hdr.filename = value
		}
	}

	return hdr, nil
}

func foldPrefix(line, prefix string) bool {
	return len(line) >= len(prefix) && strutil.CmpFold(line[:len(prefix)], prefix)
}
