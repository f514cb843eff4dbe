package inscription

import (
	"bytes"
	"fmt"
)

const (
	// TextContentType is the MIME type used for plain text inscriptions.
	TextContentType = "text/plain;charset=utf-8"
)

// Inscription is a piece of content that is embedded into the chain through
// an ordinal envelope. An inscription is immutable once created, all methods
// that hand out its fields return copies.
type Inscription struct {
	// ContentType is the raw MIME type of the content, e.g.
	// "text/plain;charset=utf-8".
	ContentType []byte

	// Body is the raw payload of the inscription.
	Body []byte
}

// New creates a new inscription from the given MIME type and payload. The
// content type must be non-empty and must fit into a single script push.
func New(contentType string, body []byte) (*Inscription, error) {
	if len(contentType) == 0 {
		return nil, fmt.Errorf("%w: empty content type",
			ErrInvalidScript)
	}
	if len(contentType) > MaxPushSize {
		return nil, fmt.Errorf("%w: content type of %d bytes exceeds "+
			"max push size of %d", ErrInvalidScript,
			len(contentType), MaxPushSize)
	}

	return &Inscription{
		ContentType: []byte(contentType),
		Body:        append([]byte(nil), body...),
	}, nil
}

// NewText creates a plain text inscription carrying the UTF-8 bytes of the
// passed string.
func NewText(text string) *Inscription {
	return &Inscription{
		ContentType: []byte(TextContentType),
		Body:        []byte(text),
	}
}

// Copy returns a deep copy of the inscription.
func (i *Inscription) Copy() *Inscription {
	return &Inscription{
		ContentType: append([]byte(nil), i.ContentType...),
		Body:        append([]byte(nil), i.Body...),
	}
}

// Equal returns true if both inscriptions carry the same content type and
// body.
func (i *Inscription) Equal(o *Inscription) bool {
	if i == nil || o == nil {
		return i == o
	}

	return bytes.Equal(i.ContentType, o.ContentType) &&
		bytes.Equal(i.Body, o.Body)
}

// String returns a short human readable description of the inscription.
func (i *Inscription) String() string {
	return fmt.Sprintf("Inscription(type=%s, size=%d)", i.ContentType,
		len(i.Body))
}
