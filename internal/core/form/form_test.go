package form

import (
	"errors"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

func TestRenderMarksEveryConfiguredFieldRequired(t *testing.T) {
	schema := DefaultSchema()
	for _, code := range schema.Currencies() {
		want := schema.RequiredFields(code)
		got := schema.Render(code)
		if len(got) != len(want) {
			t.Fatalf("%s: expected %d inputs, got %d", code, len(want), len(got))
		}
		for i, input := range got {
			if input.Name != want[i] || !input.Required {
				t.Fatalf("%s: unexpected input %+v at %d", code, input, i)
			}
		}
	}
}

func TestDefaultSchemaTable(t *testing.T) {
	schema := DefaultSchema()
	cases := map[string][]string{
		"EUR": {"iban"},
		"USD": {"routing_number", "account_number", "account_type"},
		"GBP": {"sort_code", "account_number"},
	}
	for code, want := range cases {
		got := schema.RequiredFields(code)
		if len(got) != len(want) {
			t.Fatalf("%s: got %v, want %v", code, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: got %v, want %v", code, got, want)
			}
		}
	}
	if schema.RequiredFields("XXX") != nil {
		t.Fatalf("expected nil fields for unknown currency")
	}
}

func TestParseSchemaRejectsUnknownField(t *testing.T) {
	_, err := ParseSchema([]byte("EUR:\n  fields: [swift]\n"))
	if err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func filledUSDForm(t *testing.T) *Form {
	t.Helper()
	f := New(nil)
	if err := f.SelectCurrency("usd"); err != nil {
		t.Fatalf("SelectCurrency() error = %v", err)
	}
	for key, value := range map[string]string{
		domain.FieldReceiverName:  "ACME Corp",
		domain.FieldAmount:        "1250.50",
		domain.FieldRoutingNumber: "026009593",
		domain.FieldAccountNumber: "12345678",
		domain.FieldAccountType:   "CHECKING",
	} {
		if err := f.Edit(key, value); err != nil {
			t.Fatalf("Edit(%s) error = %v", key, err)
		}
	}
	return f
}

func TestValidateAcceptsCompleteForm(t *testing.T) {
	f := filledUSDForm(t)
	if err := f.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsBlankRequiredBankField(t *testing.T) {
	f := filledUSDForm(t)
	if err := f.Edit(domain.FieldAccountType, "  "); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}

	err := f.Validate()
	if !domain.IsKind(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != domain.FieldAccountType {
		t.Fatalf("unexpected missing fields: %v", verr.Missing)
	}
}

func TestValidateRejectsMissingReceiverAndAmount(t *testing.T) {
	f := New(nil)
	if err := f.Edit(domain.FieldIBAN, "DE89370400440532013000"); err != nil {
		t.Fatalf("Edit() error = %v", err)
	}
	var verr *domain.ValidationError
	if err := f.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Missing) != 2 {
		t.Fatalf("expected receiver_name and amount missing, got %v", verr.Missing)
	}
}

func TestValidateRejectsNonPositiveAmount(t *testing.T) {
	f := filledUSDForm(t)
	_ = f.Edit(domain.FieldAmount, "-3")
	var verr *domain.ValidationError
	if err := f.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := verr.Invalid[domain.FieldAmount]; !ok {
		t.Fatalf("expected amount to be invalid: %+v", verr)
	}
}

func TestSelectCurrencyClearsOldBankFields(t *testing.T) {
	f := filledUSDForm(t)
	if err := f.SelectCurrency("GBP"); err != nil {
		t.Fatalf("SelectCurrency() error = %v", err)
	}
	if f.Value(domain.FieldRoutingNumber) != "" || f.Value(domain.FieldAccountNumber) != "" {
		t.Fatalf("expected USD bank fields to be cleared")
	}
	if f.Value(domain.FieldReceiverName) != "ACME Corp" {
		t.Fatalf("expected non-bank fields to survive currency change")
	}
	inputs := f.BankInputs()
	if len(inputs) != 2 || inputs[0].Name != domain.FieldSortCode {
		t.Fatalf("unexpected GBP inputs: %+v", inputs)
	}
}

func TestSelectCurrencyRejectsUnsupported(t *testing.T) {
	f := New(nil)
	if err := f.SelectCurrency("ZZZ"); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestExtractionFlowSetsProvenance(t *testing.T) {
	f := New(nil)
	if err := f.BeginExtraction(); err != nil {
		t.Fatalf("BeginExtraction() error = %v", err)
	}
	if err := f.BeginAIProcessing(); err != nil {
		t.Fatalf("BeginAIProcessing() error = %v", err)
	}
	err := f.ApplyExtraction(domain.ExtractedFields{
		ReceiverName: "Globex",
		Amount:       "99.00",
		Currency:     "GBP",
		SortCode:     "601613",
	})
	if err != nil {
		t.Fatalf("ApplyExtraction() error = %v", err)
	}
	if f.State() != StateFilled || f.Currency() != "GBP" {
		t.Fatalf("unexpected state %s currency %s", f.State(), f.Currency())
	}
	if !f.IsAutoFilled(domain.FieldSortCode) || !f.IsAutoFilled(domain.FieldReceiverName) {
		t.Fatalf("expected auto-filled provenance")
	}
	if f.IsAutoFilled(domain.FieldAccountNumber) {
		t.Fatalf("empty fields must not be marked auto-filled")
	}

	_ = f.Edit(domain.FieldSortCode, "601614")
	if f.IsAutoFilled(domain.FieldSortCode) {
		t.Fatalf("manual edit must clear provenance")
	}

	f.Reset()
	if f.State() != StateIdle || f.IsAutoFilled(domain.FieldReceiverName) || f.Value(domain.FieldReceiverName) != "" {
		t.Fatalf("reset must clear values and provenance")
	}
}

func TestInvalidTransitionIsRejected(t *testing.T) {
	f := New(nil)
	if err := f.ApplyExtraction(domain.ExtractedFields{}); err == nil {
		t.Fatalf("expected Idle -> Filled to be rejected")
	}
	if err := f.FailExtraction(errors.New("no content")); err != nil {
		t.Fatalf("FailExtraction() error = %v", err)
	}
	if f.State() != StateExtractError || f.LastError() != "no content" {
		t.Fatalf("unexpected state %s / %q", f.State(), f.LastError())
	}
}

func TestSubmitLifecycle(t *testing.T) {
	f := filledUSDForm(t)
	if err := f.BeginSubmit(); err != nil {
		t.Fatalf("BeginSubmit() error = %v", err)
	}
	if err := f.CompleteSubmit(errors.New("quote rejected")); err != nil {
		t.Fatalf("CompleteSubmit() error = %v", err)
	}
	if f.State() != StateSubmitError {
		t.Fatalf("expected submit_error, got %s", f.State())
	}
	if err := f.BeginSubmit(); err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if err := f.CompleteSubmit(nil); err != nil || f.State() != StateSubmitted {
		t.Fatalf("expected submitted, got %s (%v)", f.State(), err)
	}

	req := f.TransferRequest()
	if req.Currency != "USD" || req.BankDetails[domain.FieldRoutingNumber] != "026009593" {
		t.Fatalf("unexpected transfer request: %+v", req)
	}
}

func fillFrom(t *testing.T, f *Form, fields domain.ExtractedFields) error {
	t.Helper()
	if err := f.BeginExtraction(); err != nil {
		t.Fatalf("BeginExtraction() error = %v", err)
	}
	if err := f.BeginAIProcessing(); err != nil {
		t.Fatalf("BeginAIProcessing() error = %v", err)
	}
	return f.ApplyExtraction(fields)
}

func TestReExtractionDropsPreviousValues(t *testing.T) {
	f := New(nil)
	if err := fillFrom(t, f, domain.ExtractedFields{
		ReceiverName: "Old GmbH",
		Amount:       "50.00",
		Currency:     "EUR",
		IBAN:         "DE89370400440532013000",
	}); err != nil {
		t.Fatalf("first fill error = %v", err)
	}

	if err := fillFrom(t, f, domain.ExtractedFields{
		ReceiverName: "New Ltd",
		Amount:       "1000",
		Currency:     "GBP",
	}); err != nil {
		t.Fatalf("second fill error = %v", err)
	}
	if f.Value(domain.FieldIBAN) != "" || f.IsAutoFilled(domain.FieldIBAN) {
		t.Fatalf("iban from the previous invoice survived: %q", f.Value(domain.FieldIBAN))
	}
	if f.Currency() != "GBP" || f.Value(domain.FieldReceiverName) != "New Ltd" {
		t.Fatalf("unexpected form %s %q", f.Currency(), f.Value(domain.FieldReceiverName))
	}
	if err := f.Validate(); err == nil {
		t.Fatalf("expected missing GBP bank fields")
	}
}

func TestExtractionWithUnsupportedCurrencyIsRejected(t *testing.T) {
	f := New(nil)
	if err := fillFrom(t, f, domain.ExtractedFields{
		ReceiverName: "Old GmbH",
		Amount:       "50.00",
		Currency:     "EUR",
		IBAN:         "DE89370400440532013000",
	}); err != nil {
		t.Fatalf("first fill error = %v", err)
	}

	err := fillFrom(t, f, domain.ExtractedFields{ReceiverName: "New AB", Amount: "1000", Currency: "XTS"})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if f.State() != StateExtractError || f.LastError() == "" {
		t.Fatalf("unexpected state %s / %q", f.State(), f.LastError())
	}
	if f.Value(domain.FieldIBAN) != "" || f.IsAutoFilled(domain.FieldIBAN) {
		t.Fatalf("rejected fill must not keep the previous invoice's iban")
	}
	if err := f.BeginSubmit(); err == nil {
		t.Fatalf("rejected extraction must not be submittable")
	}
}

func TestAutoFilledListsExtractedKeys(t *testing.T) {
	f := New(nil)
	if err := fillFrom(t, f, domain.ExtractedFields{ReceiverName: "Globex", Currency: "EUR"}); err != nil {
		t.Fatalf("fill error = %v", err)
	}
	got := map[string]bool{}
	for _, key := range f.AutoFilled() {
		got[key] = true
	}
	if len(got) != 2 || !got[domain.FieldCurrency] || !got[domain.FieldReceiverName] {
		t.Fatalf("unexpected auto-filled keys %v", f.AutoFilled())
	}
}
