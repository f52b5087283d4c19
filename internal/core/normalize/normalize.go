// Package normalize turns loosely typed extraction output into canonical field values.
// Every function here is total: bad input yields a defensive default, never an error.
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/araddon/dateparse"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

const DefaultCurrency = "EUR"

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Fields builds a fully populated record from the raw JSON object.
func Fields(raw map[string]any) domain.ExtractedFields {
	var out domain.ExtractedFields
	for _, key := range domain.AllFieldKeys() {
		value, present := raw[key]
		s, ok := toString(value)
		if !present || !ok {
			s = ""
		}
		out.Set(key, normalizeField(key, s, present && ok))
	}
	return out
}

func normalizeField(key, value string, present bool) string {
	switch key {
	case domain.FieldAmount:
		return Amount(value)
	case domain.FieldCurrency:
		if !present {
			return DefaultCurrency
		}
		return Currency(value)
	case domain.FieldIssueDate, domain.FieldDueDate:
		return Date(value)
	case domain.FieldIBAN:
		return IBAN(value)
	case domain.FieldAccountType:
		return AccountType(value)
	default:
		return strings.TrimSpace(value)
	}
}

// Amount strips whitespace and converts a comma decimal separator to a dot.
func Amount(value string) string {
	compact := stripSpace(value)
	return strings.ReplaceAll(compact, ",", ".")
}

// Currency uppercases and truncates to three characters; empty input defaults to EUR.
func Currency(value string) string {
	code := strings.ToUpper(strings.TrimSpace(value))
	if code == "" {
		return DefaultCurrency
	}
	if runes := []rune(code); len(runes) > 3 {
		code = string(runes[:3])
	}
	return code
}

// Date returns YYYY-MM-DD when the input is parseable, otherwise the input unchanged.
func Date(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	if isoDate.MatchString(trimmed) {
		return trimmed
	}
	parsed, err := dateparse.ParseAny(trimmed, dateparse.PreferMonthFirst(false), dateparse.RetryAmbiguousDateWithSwap(true))
	if err != nil {
		return value
	}
	return parsed.Format("2006-01-02")
}

func IBAN(value string) string {
	return strings.ToUpper(stripSpace(value))
}

func AccountType(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func stripSpace(value string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, value)
}

func toString(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}
