package formdata

import (
	"bytes"
	"unicode/utf8"

	"github.com/indigo-web/formbody/config"
	"github.com/indigo-web/formbody/http/form"
	"github.com/indigo-web/formbody/http/status"
	"github.com/indigo-web/formbody/internal/urlencoded"
	"github.com/indigo-web/utils/uf"
)

// ParseURLEncoded decodes a complete x-www-form-urlencoded body into form
// values, sorted by key. There's no part structure to stream over, so the
// body arrives fully buffered; the caller is responsible for having bounded
// its size.
func ParseURLEncoded(cfg *config.Config, data []byte) (form.Data, error) {
	d := form.Data{Values: make([]form.Pair, 0, cfg.Body.Form.EntriesPrealloc)}
	buff := make([]byte, 0, cfg.Body.Form.BufferPrealloc)

	for len(data) > 0 {
		var pair []byte
		if amp := bytes.IndexByte(data, '&'); amp != -1 {
			pair, data = data[:amp], data[amp+1:]
		} else {
			pair, data = data, nil
		}

		if containsIllegalSymbol(pair) {
			return form.Data{}, status.ErrBadRequest
		}

		key, value, _ := bytes.Cut(pair, []byte{'='})

		var decodedKey, decodedValue []byte
		var err error

		decodedKey, buff, err = urlencoded.Decode(key, buff)
		if err != nil {
			return form.Data{}, err
		}

		if len(decodedKey) == 0 {
			return form.Data{}, status.ErrBadRequest
		}

		decodedValue, buff, err = urlencoded.Decode(value, buff)
		if err != nil {
			return form.Data{}, err
		}

		if !utf8.Valid(decodedKey) || !utf8.Valid(decodedValue) {
			return form.Data{}, status.ErrBadCharset
		}

		d.Values = append(d.Values, form.Pair{
			Name:  uf.B2S(decodedKey),
			Value: uf.B2S(decodedValue),
		})
	}

	d.Sort()

	return d, nil
}

func containsIllegalSymbol(data []byte) bool {
	for _, c := range data {
		// whitespaces and non-printable characters must arrive encoded
		if c < 0x21 || c > 0x7e {
			return true
		}
	}

	return false
}
