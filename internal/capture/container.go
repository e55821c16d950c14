package capture

const (
	// MimeMP4 is the upload-preferred container.
	MimeMP4 = "video/mp4"
	// MimeWebM is the fallback container.
	MimeWebM = "video/webm"
)

// Container is the negotiated capture container for a session.
type Container struct {
	MimeType string
	// NeedsConversion is set when the capture device could not encode the
	// preferred container natively and the finalized blob should be
	// re-encoded before upload.
	NeedsConversion bool
}

// NegotiateContainer picks the capture container. supported reports whether
// the capture device can encode a given MIME type natively. MP4 is preferred;
// WebM is the fallback and is flagged for conversion before upload.
func NegotiateContainer(supported func(mimeType string) bool) Container {
	if supported == nil || supported(MimeMP4) {
		return Container{MimeType: MimeMP4}
	}
	return Container{MimeType: MimeWebM, NeedsConversion: true}
}

// extensionForMime maps a container MIME type to a file extension.
func extensionForMime(mimeType string) string {
	if mimeType == MimeWebM {
		return "webm"
	}
	return "mp4"
}
