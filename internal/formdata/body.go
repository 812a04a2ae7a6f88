package formdata

import "bytes"

type bodyResult struct {
	// content is safe to hand to the part's sink right away.
	content []byte
	// remaining is only set alongside done: it opens at the next boundary
	// line (internal boundary) or follows the closing dashes (final one),
	// and goes back to the reader unconsumed.
	remaining []byte
	final     bool
	done      bool
}

// bodyParser scans a part's body for the boundary delimiter. A delimiter may
// arrive split across chunks, so the parser holds back the shortest suffix of
// seen data that could still open one and replays it in front of the next
// chunk.
type bodyParser struct {
	delimiter []byte
	tail      []byte
}

func newBodyParser(boundary string) *bodyParser {
	return &bodyParser{delimiter: []byte("\r\n--" + boundary)}
}

func (p *bodyParser) next(chunk []byte) (res bodyResult) {
	data := chunk
	if len(p.tail) > 0 {
		data = append(p.tail, chunk...)
		p.tail = nil
	}

	offset := 0
	for {
		i := bytes.Index(data[offset:], p.delimiter)
		if i == -1 {
			break
		}

		at := offset + i
		after := data[at+len(p.delimiter):]
		if len(after) < 2 {
			// a boundary, but whether the final one isn't decidable yet
			res.content = data[:at]
			p.tail = append([]byte(nil), data[at:]...)

			return res
		}

		switch {
		case after[0] == '\r' && after[1] == '\n':
			res.content = data[:at]
			res.remaining = data[at+2:]
			res.done = true

			return res
		case after[0] == '-' && after[1] == '-':
			res.content = data[:at]
			res.remaining = after[2:]
			res.final = true
			res.done = true

			return res
		default:
			// the boundary token happened to appear in content
			offset = at + 1
		}
	}

	keep := partialDelimiter(data, p.delimiter)
	res.content = data[:len(data)-keep]
	p.tail = append([]byte(nil), data[len(data)-keep:]...)

	return res
}

// partialDelimiter returns the length of the longest suffix of data that is
// a proper prefix of the delimiter.
func partialDelimiter(data, delimiter []byte) int {
	longest := len(delimiter) - 1
	if longest > len(data) {
		longest = len(data)
	}

	for k := longest; k > 0; k-- {
		if bytes.HasPrefix(delimiter, data[len(data)-k:]) {
			return k
		}
	}

	return 0
}
