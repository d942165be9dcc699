package storage

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var dataURIPattern = regexp.MustCompile(`^data:(image/\w+);base64,(.+)$`)

// DataURI is a decoded "data:image/<subtype>;base64,<payload>" value.
type DataURI struct {
	ContentType string
	Extension   string
	Data        []byte
}

// DecodeDataURI parses s and checks that the payload really is an image.
func DecodeDataURI(s string) (*DataURI, error) {
	match := dataURIPattern.FindStringSubmatch(strings.TrimSpace(s))
	if match == nil {
		return nil, fmt.Errorf("%w: expected data:image/<type>;base64,<payload>", ErrInvalidDataURI)
	}

	contentType := match[1]

	data, err := base64.StdEncoding.DecodeString(match[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidDataURI)
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: payload is %s, not an image", ErrInvalidDataURI, detected.String())
	}

	return &DataURI{
		ContentType: contentType,
		Extension:   strings.TrimPrefix(contentType, "image/"),
		Data:        data,
	}, nil
}
