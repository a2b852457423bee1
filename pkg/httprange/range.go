// Package httprange translates client Range headers into the byte window a
// response carries, and parses Content-Range headers returned by storage.
package httprange

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
)

var (
	rangeRegex = regexp.MustCompile(`^bytes=(\d*)-(\d*)$`)

	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Window is the part of an object a response carries.
type Window struct {
	Status       int
	Offset       int64
	Length       int64
	ContentRange string
}

// Partial reports whether the window is a 206 response.
func (w Window) Partial() bool {
	return w.Status == http.StatusPartialContent
}

func full(size int64) Window {
	return Window{Status: http.StatusOK, Offset: 0, Length: size}
}

// Translate works out the response window for a Range header against an object
// of size bytes.
//
// Headers that do not parse as a single byte range (other units, garbage,
// end before start, multiple ranges) are ignored and the full object is
// served, as lenient players expect. A range starting at or past the end of
// the object is rejected with ErrUnsatisfiable rather than clamped.
func Translate(header string, size int64) (Window, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return full(size), nil
	}
	if len(header) > 6 && strings.EqualFold(header[:6], "bytes=") {
		header = "bytes=" + strings.TrimSpace(header[6:])
	}

	parts := rangeRegex.FindStringSubmatch(header)
	if parts == nil || (parts[1] == "" && parts[2] == "") {
		return full(size), nil
	}

	var window Window
	if parts[1] == "" {
		suffix, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return full(size), nil
		}
		if suffix == 0 || size == 0 {
			return Window{}, ErrUnsatisfiable
		}
		if suffix > size {
			suffix = size
		}
		window = Window{Offset: size - suffix, Length: suffix}
	} else {
		start, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return full(size), nil
		}
		end := size - 1
		if parts[2] != "" {
			end, err = strconv.ParseInt(parts[2], 10, 64)
			if err != nil || end < start {
				return full(size), nil
			}
		}
		if start >= size {
			return Window{}, ErrUnsatisfiable
		}
		if end >= size {
			end = size - 1
		}
		window = Window{Offset: start, Length: end - start + 1}
	}

	window.Status = http.StatusPartialContent
	window.ContentRange = FormatContentRange(window.Offset, window.Length, size)
	return window, nil
}
