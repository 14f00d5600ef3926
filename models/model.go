package models

import "strings"

const (
	HeaderSize = 8 // magic + length
)

type Header struct {
	Magic  uint32
	Length uint32
}

// Request is one JSON request as it goes on the wire. Payload carries
// the trailing NUL and Length counts it.
type Request struct {
	Length  uint32
	Payload []byte
}

// NewRequest builds a request from json text. The text ends at its first
// NUL and is cut to maxLen bytes; truncated reports whether the cut happened.
func NewRequest(json string, maxLen int) (req *Request, truncated bool) {
	if i := strings.IndexByte(json, 0); i >= 0 {
		json = json[:i]
	}
	if maxLen > 0 && len(json) > maxLen {
		json = json[:maxLen]
		truncated = true
	}

	payload := make([]byte, len(json)+1)
	copy(payload, json)
	return &Request{
		Length:  uint32(len(payload)),
		Payload: payload,
	}, truncated
}

// Text returns the request without its terminator.
func (r *Request) Text() string {
	return strings.TrimSuffix(string(r.Payload), "\x00")
}
