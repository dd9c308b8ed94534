// Package multipart implements a byte-level multipart/form-data decoder for
// fully buffered request bodies.
//
// The decoder is deliberately lenient: segments without a header/content
// separator are skipped rather than rejected, text values are decoded with
// invalid UTF-8 replaced, and duplicate field names overwrite earlier ones.
// The strict stdlib mime/multipart reader cannot reproduce this behavior,
// which existing transcription clients depend on.
package multipart

import (
	"bytes"
	"errors"
	"strings"
)

// ErrNoBoundary is returned when the Content-Type header carries no
// boundary parameter.
var ErrNoBoundary = errors.New("no boundary parameter in Content-Type")

// Field is a single decoded form field.
type Field struct {
	Name   string
	IsFile bool
	Data   []byte // raw content for file parts, nil otherwise
	Text   string // trimmed UTF-8 content for non-file parts
}

// Form maps field names to decoded fields. Later occurrences of a name
// replace earlier ones.
type Form map[string]Field

// File returns the raw content of a named field. A part uploaded without a
// filename still resolves; its text content is returned as bytes.
func (f Form) File(name string) ([]byte, bool) {
	fld, ok := f[name]
	if !ok {
		return nil, false
	}
	if fld.IsFile {
		return fld.Data, true
	}
	return []byte(fld.Text), true
}

// Value returns the trimmed text content of a named non-file field.
func (f Form) Value(name string) (string, bool) {
	fld, ok := f[name]
	if !ok || fld.IsFile {
		return "", false
	}
	return fld.Text, true
}

var (
	crlf      = []byte("\r\n")
	separator = []byte("\r\n\r\n")
)

// Parse decodes a buffered multipart body using the boundary declared in the
// Content-Type header. The caller must have read the entire body; no
// streaming is performed.
func Parse(body []byte, contentType string) (Form, error) {
	boundary, err := extractBoundary(contentType)
	if err != nil {
		return nil, err
	}

	form := make(Form)
	delim := []byte("--" + boundary)

	for _, seg := range bytes.Split(body, delim) {
		if len(seg) == 0 {
			continue
		}
		// The closing delimiter leaves a "--" marker segment behind.
		if bytes.Equal(bytes.TrimSpace(seg), []byte("--")) {
			continue
		}

		seg = bytes.TrimPrefix(seg, crlf)
		seg = bytes.TrimSuffix(seg, crlf)

		idx := bytes.Index(seg, separator)
		if idx < 0 {
			// Malformed part without a header/content separator.
			continue
		}
		headers := replaceInvalidUTF8(seg[:idx])
		content := seg[idx+len(separator):]

		name, isFile := parseDisposition(headers)
		if name == "" {
			continue
		}

		if isFile {
			form[name] = Field{Name: name, IsFile: true, Data: content}
		} else {
			form[name] = Field{Name: name, Text: strings.TrimSpace(replaceInvalidUTF8(content))}
		}
	}

	return form, nil
}

// extractBoundary pulls the boundary token out of a Content-Type header,
// trimming surrounding quotes.
func extractBoundary(contentType string) (string, error) {
	for _, param := range strings.Split(contentType, ";") {
		param = strings.TrimSpace(param)
		if strings.HasPrefix(param, "boundary=") {
			b := strings.Trim(param[len("boundary="):], `"`)
			if b != "" {
				return b, nil
			}
		}
	}
	return "", ErrNoBoundary
}

// parseDisposition scans a part's header block for the Content-Disposition
// line and returns the declared field name plus whether a filename parameter
// classifies the part as a file.
func parseDisposition(headers string) (name string, isFile bool) {
	for _, line := range strings.Split(headers, "\r\n") {
		if !strings.HasPrefix(strings.ToLower(line), "content-disposition:") {
			continue
		}
		for _, item := range strings.Split(line, ";") {
			item = strings.TrimSpace(item)
			if strings.HasPrefix(item, "name=") {
				name = strings.Trim(item[len("name="):], `"`)
			}
			if strings.HasPrefix(item, "filename=") {
				isFile = true
			}
		}
	}
	return name, isFile
}

func replaceInvalidUTF8(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
