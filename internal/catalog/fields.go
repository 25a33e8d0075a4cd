package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// flexInt decodes a JSON number or numeric string. Anything unparsable,
// including null and empty strings, becomes 0 instead of failing the decode.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	*f = flexInt(CoerceInt(data))
	return nil
}

// CoerceInt converts a raw JSON value to an int, defaulting to 0.
func CoerceInt(raw []byte) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
	} else {
		s = string(raw)
	}
	s = strings.TrimSpace(s)

	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int(f)) {
		return int(f)
	}
	return 0
}

// plainText strips HTML markup from provider descriptions and collapses
// whitespace. Input that fails to parse is returned trimmed.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
