package form

import (
	"iter"
	"slices"
	"strings"
)

// Pair is a single non-file field of a form.
type Pair struct {
	Name, Value string
}

// File is a single uploaded file of a form. Filename is whatever the client
// claimed and must be treated as untrusted; Path points at the server-local
// temporary file holding the content, owned exclusively by the request that
// parsed the form. Removing it once the request is served is the caller's
// responsibility.
type File struct {
	Name     string
	Filename string
	Path     string
}

// Data is a fully parsed form. Both sequences are sorted ascending by field
// name, regardless of the order parts arrived on the wire; this is a
// documented contract, so two forms carrying the same fields always compare
// equal. Repeated names keep their wire order among themselves.
type Data struct {
	Values []Pair
	Files  []File
}

// Value returns the first value matching the name.
func (d Data) Value(name string) (string, bool) {
	for value := range d.ValuesOf(name) {
		return value, true
	}

	return "", false
}

// ValuesOf returns an iterator over all values matching the name.
func (d Data) ValuesOf(name string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, entry := range d.Values {
			if entry.Name == name {
				if !yield(entry.Value) {
					break
				}
			}
		}
	}
}

// File returns the first file matching the field name.
func (d Data) File(name string) (File, bool) {
	for file := range d.FilesOf(name) {
		return file, true
	}

	return File{}, false
}

// FilesOf returns an iterator over all files matching the field name.
func (d Data) FilesOf(name string) iter.Seq[File] {
	return func(yield func(File) bool) {
		for _, entry := range d.Files {
			if entry.Name == name {
				if !yield(entry) {
					break
				}
			}
		}
	}
}

// Sort normalizes both sequences into the sorted order promised above.
func (d *Data) Sort() {
	slices.SortStableFunc(d.Values, func(a, b Pair) int {
		return strings.Compare(a.Name, b.Name)
	})
	slices.SortStableFunc(d.Files, func(a, b File) int {
		return strings.Compare(a.Name, b.Name)
	})
}
