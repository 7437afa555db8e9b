package pipeline

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

type InputType string

const (
	InputCSV  InputType = "csv"
	InputXLSX InputType = "xlsx"
	InputHTML InputType = "html"
)

type DetectResult struct {
	Type   InputType
	Reason string
}

var zipSignature = []byte("PK\x03\x04")

// sniffWindow bounds how much of the content is scanned for markup.
const sniffWindow = 2048

// DetectInputType picks an extractor from the content first and the file name
// second. Accounting packages often save HTML tables under an .xls name, so
// markup beats the extension.
func DetectInputType(filename string, content []byte) DetectResult {
	if bytes.HasPrefix(content, zipSignature) {
		return DetectResult{Type: InputXLSX, Reason: "zip_signature"}
	}

	head := content
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	lowerHead := strings.ToLower(string(head))
	if strings.Contains(lowerHead, "<table") || strings.Contains(lowerHead, "<html") {
		return DetectResult{Type: InputHTML, Reason: "markup"}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return DetectResult{Type: InputXLSX, Reason: "extension"}
	case ".htm", ".html":
		return DetectResult{Type: InputHTML, Reason: "extension"}
	}
	return DetectResult{Type: InputCSV, Reason: "default"}
}

// ParseInputType validates an explicit --type value.
func ParseInputType(value string) (InputType, error) {
	switch InputType(strings.ToLower(strings.TrimSpace(value))) {
	case InputCSV, "txt":
		return InputCSV, nil
	case InputXLSX:
		return InputXLSX, nil
	case InputHTML, "htm":
		return InputHTML, nil
	default:
		return "", fmt.Errorf("unsupported input type: %s", value)
	}
}
