package llm

import (
	"strings"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

func TestSystemInstructionListsEveryField(t *testing.T) {
	for _, key := range domain.AllFieldKeys() {
		if !strings.Contains(SystemInstruction, key) {
			t.Fatalf("system instruction misses %q", key)
		}
	}
}

func TestUserMessageIncludesURLForDOMOnly(t *testing.T) {
	dom := UserMessage(domain.RawContent{SourceType: domain.SourceDOM, URL: "https://x.test/inv", Text: "Total 10 EUR", HTML: "<table></table>"})
	if !strings.Contains(dom, "Source URL: https://x.test/inv") || !strings.Contains(dom, "<table></table>") {
		t.Fatalf("unexpected dom message: %s", dom)
	}
	pdf := UserMessage(domain.RawContent{SourceType: domain.SourcePDF, URL: "https://x.test/inv.pdf", Text: "Total 10 EUR"})
	if strings.Contains(pdf, "Source URL") {
		t.Fatalf("pdf message must not carry the url: %s", pdf)
	}
}

func TestParseFieldsToleratesFences(t *testing.T) {
	fields, err := ParseFields("```json\n{\"amount\": 120.5, \"currency\": \"eur\"}\n```")
	if err != nil {
		t.Fatalf("ParseFields() error = %v", err)
	}
	if fields["currency"] != "eur" || fields["amount"] != 120.5 {
		t.Fatalf("unexpected fields %#v", fields)
	}
	if _, ok := fields["iban"]; ok {
		t.Fatalf("absent keys must not be defaulted")
	}
}

func TestParseFieldsRejectsInvalidJSON(t *testing.T) {
	_, err := ParseFields("I could not find an invoice.")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	_, err = ParseFields("null")
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error for null, got %v", err)
	}
}
