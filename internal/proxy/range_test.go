package proxy

import "testing"

func TestParseRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		size    int64
		want    byteRange
		ranged  bool
		wantErr bool
	}{
		{name: "absent header", header: "", size: 1000, ranged: false},
		{name: "explicit span", header: "bytes=100-199", size: 1000, want: byteRange{100, 199}, ranged: true},
		{name: "first byte", header: "bytes=0-0", size: 1000, want: byteRange{0, 0}, ranged: true},
		{name: "open end defaults to size-1", header: "bytes=1-", size: 1000, want: byteRange{1, 999}, ranged: true},
		{name: "end clamped to size-1", header: "bytes=0-5000", size: 1000, want: byteRange{0, 999}, ranged: true},
		{name: "start beyond size", header: "bytes=1000-", size: 1000, wantErr: true},
		{name: "malformed prefix ignored", header: "chunks=0-1", size: 1000, ranged: false},
		{name: "multi-range ignored", header: "bytes=0-1,5-9", size: 1000, ranged: false},
		{name: "suffix form ignored", header: "bytes=-500", size: 1000, ranged: false},
		{name: "end before start ignored", header: "bytes=200-100", size: 1000, ranged: false},
		{name: "garbage ignored", header: "bytes=abc-def", size: 1000, ranged: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ranged, err := parseRange(tt.header, tt.size)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRange(%q) error = %v, wantErr %v", tt.header, err, tt.wantErr)
			}
			if ranged != tt.ranged {
				t.Fatalf("parseRange(%q) ranged = %v, want %v", tt.header, ranged, tt.ranged)
			}
			if ranged && got != tt.want {
				t.Errorf("parseRange(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestByteRangeRendering(t *testing.T) {
	r := byteRange{Start: 100, End: 199}
	if r.Length() != 100 {
		t.Errorf("Length() = %d, want 100", r.Length())
	}
	if got := r.ContentRange(1000); got != "bytes 100-199/1000" {
		t.Errorf("ContentRange() = %q", got)
	}
	if got := r.Spec(); got != "bytes=100-199" {
		t.Errorf("Spec() = %q", got)
	}
}
