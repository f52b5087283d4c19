// Package llm holds the invoice field-extraction prompt shared by the AI providers.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

const (
	Temperature     = 0.1
	MaxOutputTokens = 1000

	maxTextChars = 30000
	maxHTMLChars = 15000
)

// SystemInstruction enumerates every field the service may return and its format.
const SystemInstruction = `You extract payment data from invoices. Reply with a single JSON object and nothing else.
Use only these keys and omit any key whose value is not present in the document:
invoice_number, amount, currency, issue_date, due_date, receiver_name, receiver_address,
sender_name, sender_address, reference, iban, account_number, routing_number, account_type,
sort_code, ifsc_code, bsb_code, cnaps_code, clabe, institution_number, transit_number,
bank_code, branch_code.
Rules:
- amount: the total amount due as a number string, currency symbols and thousands separators removed, "." as decimal separator.
- currency: 3-letter ISO 4217 code.
- issue_date, due_date: YYYY-MM-DD.
- iban: uppercase with no spaces.
- receiver_name is the party to be paid; sender_name is the party paying.
- Bank identifiers depend on the currency: iban for EUR and CHF; routing_number, account_number and account_type (CHECKING or SAVINGS) for USD; sort_code and account_number for GBP; ifsc_code for INR; bsb_code for AUD; cnaps_code for CNY; clabe for MXN; institution_number, transit_number, account_number and account_type for CAD; bank_code, branch_code, account_number and account_type for JPY.
- All values are strings.`

// UserMessage renders the extraction request. DOM content carries its source URL and
// the structured HTML when it was captured.
func UserMessage(content domain.RawContent) string {
	var b strings.Builder
	if content.SourceType == domain.SourceDOM && content.URL != "" {
		fmt.Fprintf(&b, "Source URL: %s\n\n", content.URL)
	}
	if content.SourceType == domain.SourcePDF {
		b.WriteString("Text recovered from a PDF invoice:\n")
	} else {
		b.WriteString("Page text:\n")
	}
	b.WriteString(truncate(content.Text, maxTextChars))
	if html := strings.TrimSpace(content.HTML); html != "" {
		b.WriteString("\n\nPage HTML (layout context):\n")
		b.WriteString(truncate(html, maxHTMLChars))
	}
	return b.String()
}

// ParseFields decodes the service's JSON answer. Code fences and surrounding prose are tolerated.
func ParseFields(raw string) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(jsonObject(raw)), &fields); err != nil {
		return nil, domain.WrapError(domain.ErrExtraction, "parse ai response", err)
	}
	if fields == nil {
		return nil, domain.WrapError(domain.ErrExtraction, "parse ai response", fmt.Errorf("response is not a JSON object"))
	}
	return fields, nil
}

func jsonObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
