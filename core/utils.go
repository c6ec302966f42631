package core

import (
	"strings"
	"time"
	"unicode"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// OnlyDigits strips every non-digit rune from `s` (CPF, CNPJ, CEP, phone numbers...).
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// ContainsFold reports whether substr is within s, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// QueryTime is a time.Time bound from a query param, formatted RFC3339 or yyyy-mm-dd.
type QueryTime struct {
	time.Time
}

func NewQueryTime(t time.Time) QueryTime { return QueryTime{Time: t} }

// UnmarshalParam implements echo.BindUnmarshaler.
func (qt *QueryTime) UnmarshalParam(src string) error {
	if src == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, src); err == nil {
			qt.Time = t
			return nil
		}
	}
	return NewValidationError(nil, FieldError{Field: "date", Error: "data inválida: " + src})
}

// FormatDocument punctuates CPF (000.000.000-00) and CNPJ (00.000.000/0000-00) digits.
// Anything else is returned as is.
func FormatDocument(doc string) string {
	d := OnlyDigits(doc)
	switch len(d) {
	case 11:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case 14:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
	default:
		return doc
	}
}
