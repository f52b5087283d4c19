// Package form holds the transfer form controller: currency-dependent bank inputs,
// auto-fill provenance and submission validation.
package form

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

type State string

const defaultCurrency = "EUR"

const (
	StateIdle         State = "idle"
	StateExtracting   State = "extracting"
	StateAIProcessing State = "ai_processing"
	StateFilled       State = "filled"
	StateSubmitting   State = "submitting"
	StateSubmitted    State = "submitted"
	StateSubmitError  State = "submit_error"
	StateExtractError State = "extract_error"
)

var transitions = map[State][]State{
	StateIdle:         {StateExtracting, StateExtractError, StateSubmitting},
	StateExtracting:   {StateAIProcessing, StateExtractError},
	StateAIProcessing: {StateFilled, StateExtractError},
	StateFilled:       {StateExtracting, StateSubmitting},
	StateSubmitting:   {StateSubmitted, StateSubmitError},
	StateSubmitted:    {StateExtracting},
	StateSubmitError:  {StateExtracting, StateSubmitting},
	StateExtractError: {StateExtracting, StateSubmitting},
}

// Form is the mutable transfer form. It is not safe for concurrent use.
type Form struct {
	schema     *Schema
	state      State
	currency   string
	values     map[string]string
	autoFilled map[string]bool
	lastError  string
}

func New(schema *Schema) *Form {
	if schema == nil {
		schema = DefaultSchema()
	}
	f := &Form{schema: schema}
	f.Reset()
	return f
}

func (f *Form) State() State { return f.state }

func (f *Form) Currency() string { return f.currency }

func (f *Form) LastError() string { return f.lastError }

func (f *Form) BankInputs() []InputField {
	return f.schema.Render(f.currency)
}

func (f *Form) Value(key string) string {
	if key == domain.FieldCurrency {
		return f.currency
	}
	return f.values[key]
}

func (f *Form) IsAutoFilled(key string) bool {
	return f.autoFilled[key]
}

// Reset clears values and provenance and returns to Idle.
func (f *Form) Reset() {
	f.state = StateIdle
	f.clearValues()
	f.lastError = ""
}

func (f *Form) clearValues() {
	f.currency = defaultCurrency
	f.values = map[string]string{}
	f.autoFilled = map[string]bool{}
}

func (f *Form) transition(to State) error {
	for _, allowed := range transitions[f.state] {
		if allowed == to {
			f.state = to
			return nil
		}
	}
	return domain.WrapError(domain.ErrInvalidInput, "form transition", fmt.Errorf("%s -> %s not allowed", f.state, to))
}

// SelectCurrency re-renders the bank inputs, dropping values entered for the previous currency.
func (f *Form) SelectCurrency(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !f.schema.Supports(code) {
		return domain.WrapError(domain.ErrInvalidInput, "select currency", fmt.Errorf("unsupported currency %q", code))
	}
	if code == f.currency {
		return nil
	}
	for _, field := range f.schema.RequiredFields(f.currency) {
		delete(f.values, field)
		delete(f.autoFilled, field)
	}
	f.currency = code
	delete(f.autoFilled, domain.FieldCurrency)
	return nil
}

func (f *Form) BeginExtraction() error {
	f.lastError = ""
	return f.transition(StateExtracting)
}

func (f *Form) BeginAIProcessing() error {
	return f.transition(StateAIProcessing)
}

// FailExtraction records an extraction failure and moves to ExtractError.
func (f *Form) FailExtraction(err error) error {
	if err != nil {
		f.lastError = err.Error()
	}
	return f.transition(StateExtractError)
}

// ApplyExtraction replaces the whole form with one extraction result. Values and provenance
// from an earlier extraction never survive. An unsupported currency rejects the fill.
func (f *Form) ApplyExtraction(fields domain.ExtractedFields) error {
	code := strings.ToUpper(strings.TrimSpace(fields.Currency))
	if code != "" && !f.schema.Supports(code) {
		f.clearValues()
		err := domain.WrapError(domain.ErrInvalidInput, "apply extraction", fmt.Errorf("unsupported currency %q", code))
		if stateErr := f.FailExtraction(err); stateErr != nil {
			return errors.Join(err, stateErr)
		}
		return err
	}
	if err := f.transition(StateFilled); err != nil {
		return err
	}

	f.clearValues()
	if code != "" {
		f.currency = code
		f.autoFilled[domain.FieldCurrency] = true
	}
	for _, key := range domain.AllFieldKeys() {
		if key == domain.FieldCurrency {
			continue
		}
		value := fields.Get(key)
		if value == "" {
			continue
		}
		f.values[key] = value
		f.autoFilled[key] = true
	}
	return nil
}

// AutoFilled lists the keys whose current value came from extraction.
func (f *Form) AutoFilled() []string {
	out := make([]string, 0, len(f.autoFilled))
	for _, key := range domain.AllFieldKeys() {
		if f.autoFilled[key] {
			out = append(out, key)
		}
	}
	return out
}

// Edit records a manual change and clears the field's provenance flag.
func (f *Form) Edit(key, value string) error {
	if key == domain.FieldCurrency {
		return f.SelectCurrency(value)
	}
	var probe domain.ExtractedFields
	if !probe.Set(key, value) {
		return domain.WrapError(domain.ErrInvalidInput, "edit field", fmt.Errorf("unknown field %q", key))
	}
	f.values[key] = value
	delete(f.autoFilled, key)
	return nil
}

// Validate checks receiver name, amount and every bank field required by the currency.
func (f *Form) Validate() error {
	verr := &domain.ValidationError{Invalid: map[string]string{}}

	for _, key := range []string{domain.FieldReceiverName, domain.FieldAmount} {
		if strings.TrimSpace(f.values[key]) == "" {
			verr.Missing = append(verr.Missing, key)
		}
	}
	for _, key := range f.schema.RequiredFields(f.currency) {
		if strings.TrimSpace(f.values[key]) == "" {
			verr.Missing = append(verr.Missing, key)
		}
	}

	if amount := strings.TrimSpace(f.values[domain.FieldAmount]); amount != "" {
		parsed, err := decimal.NewFromString(amount)
		switch {
		case err != nil:
			verr.Invalid[domain.FieldAmount] = "not a decimal number"
		case !parsed.IsPositive():
			verr.Invalid[domain.FieldAmount] = "must be greater than zero"
		}
	}
	if money.GetCurrency(f.currency) == nil {
		verr.Invalid[domain.FieldCurrency] = "unknown ISO-4217 code"
	}

	if len(verr.Missing) == 0 && len(verr.Invalid) == 0 {
		return nil
	}
	return verr
}

// BeginSubmit validates and moves to Submitting.
func (f *Form) BeginSubmit() error {
	if err := f.Validate(); err != nil {
		return err
	}
	return f.transition(StateSubmitting)
}

// CompleteSubmit finishes a submission with the sandbox outcome.
func (f *Form) CompleteSubmit(err error) error {
	if err != nil {
		f.lastError = err.Error()
		return f.transition(StateSubmitError)
	}
	f.lastError = ""
	return f.transition(StateSubmitted)
}

// TransferRequest snapshots the form for the transfer sandbox.
func (f *Form) TransferRequest() domain.TransferRequest {
	details := map[string]string{}
	for _, key := range f.schema.RequiredFields(f.currency) {
		details[key] = strings.TrimSpace(f.values[key])
	}
	reference := f.values[domain.FieldReference]
	if reference == "" {
		reference = f.values[domain.FieldInvoiceNumber]
	}
	return domain.TransferRequest{
		ReceiverName: strings.TrimSpace(f.values[domain.FieldReceiverName]),
		Amount:       strings.TrimSpace(f.values[domain.FieldAmount]),
		Currency:     f.currency,
		Reference:    reference,
		BankDetails:  details,
	}
}

// FromTransferRequest loads a submitted request into a fresh form, as if typed by the user.
func FromTransferRequest(schema *Schema, req domain.TransferRequest) (*Form, error) {
	f := New(schema)
	if err := f.SelectCurrency(req.Currency); err != nil {
		return nil, err
	}
	f.values[domain.FieldReceiverName] = req.ReceiverName
	f.values[domain.FieldAmount] = req.Amount
	f.values[domain.FieldReference] = req.Reference
	for key, value := range req.BankDetails {
		if domain.IsBankField(key) {
			f.values[key] = value
		}
	}
	return f, nil
}
