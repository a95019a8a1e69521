package byterange

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const unitPrefix = "bytes="

// Resolve decides which bytes of a resource of totalSize bytes to serve for
// the given Range header value. An empty rawRange means no range was requested.
//
// Only the single-range form "bytes=<start>-<end>" is supported. Either bound
// may be empty, except that a missing start (the suffix form "bytes=-N") is
// treated as unsatisfiable. An end bound past the resource is clamped to the
// last byte. Resolve never fails: malformed input yields StatusUnsatisfiable.
func Resolve(totalSize int64, rawRange string, contentType string) Decision {
	if totalSize < 0 {
		totalSize = 0
	}
	if rawRange == "" {
		return full(totalSize, contentType)
	}

	if len(rawRange) < len(unitPrefix) || !strings.EqualFold(rawRange[:len(unitPrefix)], unitPrefix) {
		return malformed(totalSize, rawRange, "unsupported range unit")
	}

	parts := strings.Split(rawRange[len(unitPrefix):], "-")
	if len(parts) != 2 {
		return malformed(totalSize, rawRange, "expected a single start-end pair")
	}
	startText := strings.TrimSpace(parts[0])
	endText := strings.TrimSpace(parts[1])

	if startText == "" {
		return malformed(totalSize, rawRange, "suffix ranges are not supported")
	}
	start, ok := parseOffset(startText)
	if !ok {
		return malformed(totalSize, rawRange, "invalid start offset")
	}

	if start >= totalSize {
		return unsatisfiable(totalSize,
			fmt.Errorf("%w: start %d >= size %d", ErrRangeOutOfBounds, start, totalSize),
			fmt.Sprintf("Requested range not satisfiable\n%d >= %d", start, totalSize),
		)
	}

	end := totalSize - 1
	if endText != "" {
		parsed, ok := parseEndOffset(endText)
		if !ok {
			return malformed(totalSize, rawRange, "invalid end offset")
		}
		if parsed < start {
			return malformed(totalSize, rawRange, "end precedes start")
		}
		end = min(parsed, totalSize-1)
	}

	return partial(start, end, totalSize, contentType)
}

func full(total int64, contentType string) Decision {
	return Decision{
		status: StatusFull,
		start:  0,
		end:    total - 1,
		total:  total,
		headers: []Header{
			{Name: HeaderContentLength, Value: strconv.FormatInt(total, 10)},
			{Name: HeaderContentType, Value: contentType},
		},
	}
}

func partial(start, end, total int64, contentType string) Decision {
	length := end - start + 1
	return Decision{
		status: StatusPartial,
		start:  start,
		end:    end,
		total:  total,
		headers: []Header{
			{Name: HeaderContentRange, Value: ContentRange(start, end, total)},
			{Name: HeaderAcceptRanges, Value: "bytes"},
			{Name: HeaderContentLength, Value: strconv.FormatInt(length, 10)},
			{Name: HeaderContentType, Value: contentType},
		},
	}
}

func malformed(total int64, raw, detail string) Decision {
	return unsatisfiable(total,
		fmt.Errorf("%w: %s", ErrMalformedRange, detail),
		fmt.Sprintf("Requested range not satisfiable\n%q (%s) for size %d", raw, detail, total),
	)
}

func unsatisfiable(total int64, reason error, message string) Decision {
	return Decision{
		status: StatusUnsatisfiable,
		start:  -1,
		end:    -1,
		total:  total,
		headers: []Header{
			{Name: HeaderContentRange, Value: "bytes */" + strconv.FormatInt(total, 10)},
		},
		reason:  reason,
		message: message,
	}
}

// ContentRange formats a Content-Range value for an inclusive interval.
func ContentRange(start, end, total int64) string {
	return "bytes " + strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10) + "/" + strconv.FormatInt(total, 10)
}

// parseOffset parses an unsigned decimal byte offset. Signs, blanks and
// values beyond int64 are rejected.
func parseOffset(s string) (int64, bool) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v > math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}

// parseEndOffset is parseOffset for end bounds, which are clamped anyway:
// a well-formed value beyond int64 saturates to math.MaxInt64.
func parseEndOffset(s string) (int64, bool) {
	if v, ok := parseOffset(s); ok {
		return v, true
	}
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, false
	}
	return math.MaxInt64, true
}
