package proxy

import (
	"fmt"
	"strconv"
	"strings"
)

// byteRange is one parsed, bounds-checked request range.
type byteRange struct {
	Start int64
	End   int64
}

// Length returns the span size in bytes.
func (r byteRange) Length() int64 { return r.End - r.Start + 1 }

// ContentRange renders the Content-Range header value for an object of the
// given total size.
func (r byteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, size)
}

// Spec renders the storage-facing range value.
func (r byteRange) Spec() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// parseRange parses a "bytes=start-end" header against an object of size
// bytes. End defaults to size-1 when omitted. Returns ok=false for an absent
// or malformed header (serve the full object) and an error for a
// syntactically valid but unsatisfiable range.
func parseRange(header string, size int64) (byteRange, bool, error) {
	if header == "" {
		return byteRange{}, false, nil
	}
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found || strings.Contains(spec, ",") {
		return byteRange{}, false, nil
	}
	startStr, endStr, found := strings.Cut(spec, "-")
	if !found || startStr == "" {
		return byteRange{}, false, nil
	}
	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return byteRange{}, false, nil
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil || end < start {
			return byteRange{}, false, nil
		}
		if end > size-1 {
			end = size - 1
		}
	}
	if start >= size {
		return byteRange{}, false, fmt.Errorf("range start %d beyond object size %d", start, size)
	}
	return byteRange{Start: start, End: end}, true, nil
}
