package hexconv

// Halfbyte maps an ASCII character to the value of the hex digit it spells.
// Entries greater than 0x0f mark characters that aren't hex digits, so a
// pair of lookups can be validated at once as a|b > 0x0f.
var Halfbyte = func() (table [256]byte) {
	for i := range table {
		table[i] = 0xff
	}

	for c := byte('0'); c <= '9'; c++ {
		table[c] = c - '0'
	}

	for c := byte('a'); c <= 'f'; c++ {
		table[c] = c - 'a' + 0xa
	}

	for c := byte('A'); c <= 'F'; c++ {
		table[c] = c - 'A' + 0xa
	}

	return table
}()
