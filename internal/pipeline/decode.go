package pipeline

import (
	"strings"

	"araudit/internal"
	"araudit/internal/util"
)

type scanState int

const (
	stateUnquoted scanState = iota
	stateQuoted
)

// DetectDelimiter counts commas and semicolons outside quoted spans on the
// first line. Semicolon wins only with a strictly higher count.
func DetectDelimiter(text string) rune {
	commas, semis := 0, 0
	inQuotes := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch == '"' {
			if i+1 < len(text) && text[i+1] == '"' {
				i++
			} else {
				inQuotes = !inQuotes
			}
			continue
		}
		if inQuotes {
			continue
		}
		switch ch {
		case ',':
			commas++
		case ';':
			semis++
		case '\n':
			i = len(text)
		}
	}
	if semis > commas {
		return ';'
	}
	return ','
}

// DecodeText splits delimited text into rows. The first row is the header;
// fewer than two non-blank rows is a FormatError.
func DecodeText(text string) ([]internal.RawRow, error) {
	text = strings.TrimPrefix(text, "\uFEFF")
	delim := byte(DetectDelimiter(text))
	rows := dropBlankRows(splitRows(text, delim))
	if len(rows) < 2 {
		return nil, &internal.FormatError{}
	}
	return rows, nil
}

// splitRows is a two-state scanner. In stateQuoted the delimiter, CR and LF
// are literal and a doubled quote yields one quote character.
func splitRows(text string, delim byte) []internal.RawRow {
	var (
		rows  []internal.RawRow
		row   internal.RawRow
		field strings.Builder
		state = stateUnquoted
	)

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch state {
		case stateQuoted:
			if ch != '"' {
				field.WriteByte(ch)
				continue
			}
			if i+1 < len(text) && text[i+1] == '"' {
				field.WriteByte('"')
				i++
				continue
			}
			state = stateUnquoted
		case stateUnquoted:
			switch ch {
			case '"':
				state = stateQuoted
			case delim:
				row = append(row, field.String())
				field.Reset()
			case '\r':
			case '\n':
				row = append(row, field.String())
				rows = append(rows, row)
				row = nil
				field.Reset()
			default:
				field.WriteByte(ch)
			}
		}
	}

	if field.Len() > 0 || len(row) > 0 {
		rows = append(rows, append(row, field.String()))
	}
	return rows
}

func dropBlankRows(rows []internal.RawRow) []internal.RawRow {
	out := make([]internal.RawRow, 0, len(rows))
	for _, row := range rows {
		if util.IsBlankRow(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}
