package config

import (
	"os"
	"time"
)

type (
	Form struct {
		// EntriesPrealloc is the number of preallocated seats for form fields.
		EntriesPrealloc int
		// BufferPrealloc is the initial capacity of the buffer accumulating a
		// field value, and of the buffer holding a whole urlencoded body.
		BufferPrealloc int
	}

	Body struct {
		// MaxSize bounds body data kept in memory: field values, part headers
		// and whole urlencoded payloads. Exceeding it aborts the parse with a
		// 413.
		MaxSize int
		// MaxFilesSize independently bounds data streamed into temporary
		// files by file-carrying parts.
		MaxFilesSize int
		// Form holds preallocation knobs for parsed forms.
		Form Form
	}

	NET struct {
		// ReadChunkSize is the size of the buffer a client reads the socket
		// into, and thereby the granularity the parsers consume the body at.
		ReadChunkSize int
		// ReadTimeout caps the time a single socket read may block for.
		ReadTimeout time.Duration
	}
)

// Config holds settings shared by every request unless overridden on its
// Connection: restrictions, pre-allocations and filesystem conventions.
type Config struct {
	Body Body
	NET  NET
	// TempDir is the directory uploaded files are streamed into.
	TempDir string
	// SecretKeyBase keys cookie signing. Empty disables it.
	SecretKeyBase string `test:"nullable"`
}

// Default returns a fully populated config with well-balanced limits.
func Default() *Config {
	return &Config{
		Body: Body{
			MaxSize:      8 * 1024 * 1024,  // 8 megabytes
			MaxFilesSize: 32 * 1024 * 1024, // 32 megabytes
			Form: Form{
				EntriesPrealloc: 8,
				BufferPrealloc:  1024,
			},
		},
		NET: NET{
			ReadChunkSize: 1024 * 1024,
			ReadTimeout:   90 * time.Second,
		},
		TempDir: os.TempDir(),
	}
}
