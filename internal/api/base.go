package api

import (
	"io"
)

// readBodySnippet drains up to 1 KiB of an error response body so faults
// carry something useful without buffering arbitrary payloads.
func readBodySnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 1024))
	return string(b)
}
