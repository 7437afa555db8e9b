package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"araudit/internal"
)

func TestDetectDelimiter(t *testing.T) {
	cases := []struct {
		name string
		text string
		want rune
	}{
		{name: "comma", text: "a,b,c\n1,2,3", want: ','},
		{name: "semicolon", text: "a;b;c\n1;2;3", want: ';'},
		{name: "tie goes to comma", text: "a;b,c\n", want: ','},
		{name: "no delimiters", text: "abc\n", want: ','},
		{name: "semicolons in quotes ignored", text: `"a;b;c",d,e` + "\n", want: ','},
		{name: "commas in quotes ignored", text: `"a,b,c";d;e` + "\n", want: ';'},
		{name: "escaped quote keeps span open", text: `"x"",y,z";a;b` + "\n", want: ';'},
		{name: "only first line counts", text: "a;b\n1,2,3,4,5\n", want: ';'},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectDelimiter(tc.text))
		})
	}
}

func TestDecodeText(t *testing.T) {
	t.Run("bom and crlf", func(t *testing.T) {
		rows, err := DecodeText("\uFEFFcustomer,amount\r\nAcme,100\r\n")
		require.NoError(t, err)
		assert.Equal(t, []internal.RawRow{{"customer", "amount"}, {"Acme", "100"}}, rows)
	})

	t.Run("last row without newline", func(t *testing.T) {
		rows, err := DecodeText("customer;amount\nAcme;100")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, internal.RawRow{"Acme", "100"}, rows[1])
	})

	t.Run("quoted newline and delimiter", func(t *testing.T) {
		rows, err := DecodeText("customer,note\n\"Acme, Inc\",\"line one\nline two\"\n")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, internal.RawRow{"Acme, Inc", "line one\nline two"}, rows[1])
	})

	t.Run("blank lines dropped", func(t *testing.T) {
		rows, err := DecodeText("customer,amount\n\n , \nAcme,1\n\n")
		require.NoError(t, err)
		assert.Len(t, rows, 2)
	})

	t.Run("header only", func(t *testing.T) {
		_, err := DecodeText("customer,amount\n")
		var formatErr *internal.FormatError
		require.ErrorAs(t, err, &formatErr)
		assert.Equal(t, "file empty or header missing", err.Error())
	})

	t.Run("empty", func(t *testing.T) {
		_, err := DecodeText("")
		var formatErr *internal.FormatError
		assert.ErrorAs(t, err, &formatErr)
	})
}

func TestDecodeTextQuotingRoundTrip(t *testing.T) {
	values := []string{
		`plain`,
		`with, comma`,
		`with; semicolon`,
		`say "hi"`,
		`"`,
		`a,"b";c`,
		"multi\nline",
	}

	for _, delim := range []string{",", ";"} {
		for _, v := range values {
			quoted := `"` + escapeQuotes(v) + `"`
			text := "h1" + delim + "h2" + delim + "h3\n" + "x" + delim + quoted + delim + "y\n"
			rows, err := DecodeText(text)
			require.NoError(t, err, "delim=%s value=%q", delim, v)
			require.Len(t, rows, 2)
			require.Len(t, rows[1], 3, "delim=%s value=%q", delim, v)
			assert.Equal(t, v, rows[1][1], "delim=%s", delim)
		}
	}
}

func escapeQuotes(v string) string {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] == '"' {
			out = append(out, '"')
		}
		out = append(out, v[i])
	}
	return string(out)
}
