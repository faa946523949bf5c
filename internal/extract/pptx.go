package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	appErr "github.com/bartek717/passionproject/internal/pkg/errors"
)

var slideNameRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

func extractPptx(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: not a presentation: %v", appErr.ErrExtractionFailed, err)
	}
	type slide struct {
		number int
		file   *zip.File
	}
	slides := make([]slide, 0)
	for _, file := range reader.File {
		m := slideNameRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: n, file: file})
	}
	if len(slides) == 0 {
		return "", fmt.Errorf("%w: presentation has no slides", appErr.ErrExtractionFailed)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var sb strings.Builder
	for i, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrExtractionFailed, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrExtractionFailed, err)
		}
		text, err := parseSlideXML(content)
		if err != nil {
			return "", err
		}
		if text == "" {
			continue
		}
		if i > 0 && sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	return strings.TrimSpace(sb.String()), nil
}

// parseSlideXML collects the character data of every DrawingML text run
// (<a:t> element) in document order.
func parseSlideXML(content []byte) (string, error) {
	decoder := xml.NewDecoder(bytes.NewReader(content))
	var sb strings.Builder
	inText := false
	first := true
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", appErr.ErrExtractionFailed, err)
		}
		switch tok := token.(type) {
		case xml.StartElement:
			if tok.Name.Local == "t" {
				inText = true
				if !first {
					sb.WriteString(" ")
				}
				first = false
			}
		case xml.EndElement:
			if tok.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(tok)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
