package view

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/h2non/filetype"
)

// Describe returns body for display. Bodies filetype recognises as binary,
// or that are not valid UTF-8, are summarised instead of dumped.
func Describe(body string) string {
	if body == "" {
		return ""
	}
	data := []byte(body)
	size := humanize.Bytes(uint64(len(data)))
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		return fmt.Sprintf("[binary body: %s, %s]", kind.MIME.Value, size)
	}
	if !utf8.Valid(data) {
		return fmt.Sprintf("[binary body: %s]", size)
	}
	return body
}

// DescribeAs is Describe for a body that arrived with a declared media type.
// A declared non-text type is summarised even when filetype cannot place it.
func DescribeAs(body, mtype string) string {
	if body == "" || mtype == "" || textual(mtype) {
		return Describe(body)
	}
	if kind, err := filetype.Match([]byte(body)); err == nil && kind != filetype.Unknown {
		return Describe(body)
	}
	return fmt.Sprintf("[binary body: %s, %s]", mtype, humanize.Bytes(uint64(len(body))))
}

func textual(mtype string) bool {
	if strings.HasPrefix(mtype, "text/") {
		return true
	}
	switch mtype {
	case "application/json", "application/xml", "application/javascript", "application/x-www-form-urlencoded":
		return true
	}
	return strings.HasSuffix(mtype, "+json") || strings.HasSuffix(mtype, "+xml")
}
