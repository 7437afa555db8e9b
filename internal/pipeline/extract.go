package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/xuri/excelize/v2"

	"araudit/internal"
	"araudit/internal/util"
)

// DecodeResult is the tabular form of one uploaded file.
type DecodeResult struct {
	Type      InputType
	Encoding  Encoding
	Delimiter string
	Rows      []internal.RawRow
}

// DecodeBytes transcodes delimited text to UTF-8 and decodes it.
func DecodeBytes(content []byte) (DecodeResult, error) {
	text, enc, err := ToUTF8(content)
	if err != nil {
		return DecodeResult{}, &internal.FormatError{Reason: fmt.Sprintf("cannot decode %s text: %v", enc, err)}
	}
	rows, err := DecodeText(text)
	if err != nil {
		return DecodeResult{}, err
	}
	return DecodeResult{
		Type:      InputCSV,
		Encoding:  enc,
		Delimiter: string(DetectDelimiter(text)),
		Rows:      rows,
	}, nil
}

// ExtractRows routes content to the decoder for its input type.
func ExtractRows(inputType InputType, content []byte) (DecodeResult, error) {
	switch inputType {
	case InputCSV:
		return DecodeBytes(content)
	case InputXLSX:
		rows, err := DecodeXLSX(content)
		if err != nil {
			return DecodeResult{}, err
		}
		return DecodeResult{Type: InputXLSX, Rows: rows}, nil
	case InputHTML:
		text, enc, err := ToUTF8(content)
		if err != nil {
			return DecodeResult{}, &internal.FormatError{Reason: fmt.Sprintf("cannot decode %s markup: %v", enc, err)}
		}
		rows, err := DecodeHTMLTable(text)
		if err != nil {
			return DecodeResult{}, err
		}
		return DecodeResult{Type: InputHTML, Encoding: enc, Rows: rows}, nil
	default:
		return DecodeResult{}, fmt.Errorf("unsupported input type: %s", inputType)
	}
}

// ExtractRowsFromFile reads path and decodes it. An empty inputType is sniffed.
func ExtractRowsFromFile(path string, inputType InputType) (DecodeResult, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return DecodeResult{}, err
	}
	if inputType == "" {
		inputType = DetectInputType(path, blob).Type
	}
	return ExtractRows(inputType, blob)
}

// DecodeXLSX returns the rows of the first sheet holding a header and data.
func DecodeXLSX(content []byte) ([]internal.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, &internal.FormatError{Reason: fmt.Sprintf("unreadable workbook: %v", err)}
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		out := make([]internal.RawRow, 0, len(rows))
		for _, row := range rows {
			cells := normalizeCells(row)
			if util.IsBlankRow(cells) {
				continue
			}
			out = append(out, cells)
		}
		if len(out) >= 2 {
			return out, nil
		}
	}
	return nil, &internal.FormatError{}
}

// DecodeHTMLTable returns the rows of the first table holding a header and data.
func DecodeHTMLTable(html string) ([]internal.RawRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &internal.FormatError{Reason: fmt.Sprintf("unreadable markup: %v", err)}
	}

	var out []internal.RawRow
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := make([]internal.RawRow, 0)
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := internal.RawRow{}
			tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, util.NormalizeSpaces(cell.Text()))
			})
			if util.IsBlankRow(cells) {
				return
			}
			rows = append(rows, cells)
		})
		if len(rows) < 2 {
			return true
		}
		out = rows
		return false
	})

	if len(out) < 2 {
		return nil, &internal.FormatError{}
	}
	return out, nil
}

func normalizeCells(row []string) internal.RawRow {
	out := make(internal.RawRow, 0, len(row))
	for _, c := range row {
		out = append(out, util.NormalizeSpaces(c))
	}
	return out
}
