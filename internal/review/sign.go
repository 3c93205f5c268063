package review

import "strings"

// SignMarker prefixes the comment of every history entry committed
// through the confirmation gate.  The marker is retained in storage
// so the audit trail distinguishes e-signed entries from
// system-generated ones; it is stripped only for display.
const SignMarker = "[E-signed] "

// SignComment prepends the signature marker to a comment.
func SignComment(comment string) string {
	return SignMarker + comment
}

// IsSigned reports whether a stored comment was produced through the
// confirmation gate.
func IsSigned(comment string) bool {
	return strings.HasPrefix(comment, SignMarker)
}

// StripSignature removes the signature marker for display.  Comments
// without the marker are returned unchanged.
func StripSignature(comment string) string {
	return strings.TrimPrefix(comment, SignMarker)
}
