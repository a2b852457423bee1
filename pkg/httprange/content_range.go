package httprange

// Looted from https://github.com/gregberge/content-range, all credit for the tests goes to @gregberge

import (
	"errors"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ContentRange is a parsed Content-Range response header. Unknown parts are -1.
type ContentRange struct {
	Unit  string
	Start int64
	End   int64
	Size  int64
}

var (
	contentRangeRegex = regexp.MustCompile(`(?m)(\w+) ((\d+)-(\d+)|\*)/(\d+|\*)`)
	ErrContentRange   = errors.New("invalid content-range header")
)

func ParseContentRange(value string) (ContentRange, error) {
	result := ContentRange{}

	parts := contentRangeRegex.FindStringSubmatch(value)
	if parts == nil {
		return ContentRange{}, ErrContentRange
	}
	if len(parts) != 6 { // Should never satisfy this but I'm paranoid
		log.Error().Msg("Failed to parse Content-Range header, parts regexed is not 6")
		return ContentRange{}, ErrContentRange
	}

	result.Unit = parts[1]
	result.Start = parseOrMinusOne(parts[3])
	result.End = parseOrMinusOne(parts[4])
	result.Size = parseOrMinusOne(parts[5])

	if result.Size == -1 && result.Start == -1 && result.End == -1 {
		return ContentRange{}, ErrContentRange
	}

	return result, nil
}

// FormatContentRange renders the Content-Range of a satisfiable window.
func FormatContentRange(offset, length, size int64) string {
	return "bytes " + strconv.FormatInt(offset, 10) + "-" + strconv.FormatInt(offset+length-1, 10) + "/" + strconv.FormatInt(size, 10)
}

// FormatUnsatisfied renders the Content-Range sent with a 416.
func FormatUnsatisfied(size int64) string {
	return "bytes */" + strconv.FormatInt(size, 10)
}

func parseOrMinusOne(value string) int64 {
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return -1
	}
	return i
}
