// Package extract turns uploaded course files into plain text.
package extract

import (
	"fmt"

	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

const (
	MimePDF  = "application/pdf"
	MimeDoc  = "application/msword"
	MimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimePpt  = "application/vnd.ms-powerpoint"
	MimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Doc is the extraction result. Pages is only known for PDF input and
// stays 0 otherwise.
type Doc struct {
	Text  string
	Pages int
}

// Document extracts plain text from raw file bytes based on the declared
// media type. The media type is checked before any parsing happens.
func Document(data []byte, mediaType string) (Doc, error) {
	switch mediaType {
	case MimePDF:
		return extractPDF(data)
	case MimeDoc, MimeDocx:
		text, err := extractDocx(data)
		if err != nil {
			return Doc{}, err
		}
		return Doc{Text: text}, nil
	case MimePpt, MimePptx:
		text, err := extractPptx(data)
		if err != nil {
			return Doc{}, err
		}
		return Doc{Text: text}, nil
	default:
		return Doc{}, fmt.Errorf("%w: %s", appErr.ErrUnsupportedFormat, mediaType)
	}
}

// Text is the plain-text shorthand used where page counts do not matter.
func Text(data []byte, mediaType string) (string, error) {
	doc, err := Document(data, mediaType)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// Supported reports whether the extractor handles the media type.
func Supported(mediaType string) bool {
	switch mediaType {
	case MimePDF, MimeDoc, MimeDocx, MimePpt, MimePptx:
		return true
	}
	return false
}
