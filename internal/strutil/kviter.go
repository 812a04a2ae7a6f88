package strutil

import "iter"

// WalkKV iterates over semicolon-separated key=value parameters, as found in
// Content-Disposition or Content-Type headers. Values are unquoted but not
// decoded, therefore urlencoded sequences are passed through untouched. An
// empty key-value pair is yielded once on malformed input.
func WalkKV(data string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		var key string

	paramKey:
		for i := 0; i < len(data); i++ {
			c := data[i]

			if c == '=' {
				key = data[:i]
				data = data[i+1:]
				goto paramValue
			}

			if !safeChars[c] {
				yield("", "")
				return
			}
		}

		yield(data, "")
		return

	paramValue:
		for i := 0; i < len(data); i++ {
			c := data[i]

			if c == ';' {
				value := data[:i]
				data = LStripWS(data[i+1:])

				if !yield(key, Unquote(value)) {
					return
				}

				goto paramKey
			}

			if !safeChars[c] {
				yield("", "")
				return
			}
		}

		yield(key, Unquote(data))
	}
}

// a-z A-Z 0-9 and the punctuation that legitimately appears in header
// parameters, the quote and percent included, as values arrive still encoded.
var safeChars = func() (table [256]bool) {
	for c := byte('a'); c <= 'z'; c++ {
		table[c] = true
	}

	for c := byte('A'); c <= 'Z'; c++ {
		table[c] = true
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = true
	}

	for _, c := range []byte(`()[]{}<>.,/|%"'!#$&+-^_~*? `) {
		table[c] = true
	}

	return table
}()
