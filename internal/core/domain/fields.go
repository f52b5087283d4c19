package domain

// Field keys as returned by the extraction service.
const (
	FieldInvoiceNumber   = "invoice_number"
	FieldAmount          = "amount"
	FieldCurrency        = "currency"
	FieldIssueDate       = "issue_date"
	FieldDueDate         = "due_date"
	FieldReceiverName    = "receiver_name"
	FieldReceiverAddress = "receiver_address"
	FieldSenderName      = "sender_name"
	FieldSenderAddress   = "sender_address"
	FieldReference       = "reference"

	FieldIBAN              = "iban"
	FieldAccountNumber     = "account_number"
	FieldRoutingNumber     = "routing_number"
	FieldAccountType       = "account_type"
	FieldSortCode          = "sort_code"
	FieldIFSCCode          = "ifsc_code"
	FieldBSBCode           = "bsb_code"
	FieldCNAPSCode         = "cnaps_code"
	FieldCLABE             = "clabe"
	FieldInstitutionNumber = "institution_number"
	FieldTransitNumber     = "transit_number"
	FieldBankCode          = "bank_code"
	FieldBranchCode        = "branch_code"
)

// InvoiceFieldKeys are the non-bank keys in prompt order.
var InvoiceFieldKeys = []string{
	FieldInvoiceNumber,
	FieldAmount,
	FieldCurrency,
	FieldIssueDate,
	FieldDueDate,
	FieldReceiverName,
	FieldReceiverAddress,
	FieldSenderName,
	FieldSenderAddress,
	FieldReference,
}

// BankFieldKeys are the country-specific bank identifier keys.
var BankFieldKeys = []string{
	FieldIBAN,
	FieldAccountNumber,
	FieldRoutingNumber,
	FieldAccountType,
	FieldSortCode,
	FieldIFSCCode,
	FieldBSBCode,
	FieldCNAPSCode,
	FieldCLABE,
	FieldInstitutionNumber,
	FieldTransitNumber,
	FieldBankCode,
	FieldBranchCode,
}

func AllFieldKeys() []string {
	keys := make([]string, 0, len(InvoiceFieldKeys)+len(BankFieldKeys))
	keys = append(keys, InvoiceFieldKeys...)
	return append(keys, BankFieldKeys...)
}

func IsBankField(key string) bool {
	for _, k := range BankFieldKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ExtractedFields is the normalized record. Every value is "" when unknown.
type ExtractedFields struct {
	InvoiceNumber   string `json:"invoice_number"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	IssueDate       string `json:"issue_date"`
	DueDate         string `json:"due_date"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverAddress string `json:"receiver_address"`
	SenderName      string `json:"sender_name"`
	SenderAddress   string `json:"sender_address"`
	Reference       string `json:"reference"`

	IBAN              string `json:"iban"`
	AccountNumber     string `json:"account_number"`
	RoutingNumber     string `json:"routing_number"`
	AccountType       string `json:"account_type"`
	SortCode          string `json:"sort_code"`
	IFSCCode          string `json:"ifsc_code"`
	BSBCode           string `json:"bsb_code"`
	CNAPSCode         string `json:"cnaps_code"`
	CLABE             string `json:"clabe"`
	InstitutionNumber string `json:"institution_number"`
	TransitNumber     string `json:"transit_number"`
	BankCode          string `json:"bank_code"`
	BranchCode        string `json:"branch_code"`
}

func (f *ExtractedFields) fieldPtr(key string) *string {
	switch key {
	case FieldInvoiceNumber:
		return &f.InvoiceNumber
	case FieldAmount:
		return &f.Amount
	case FieldCurrency:
		return &f.Currency
	case FieldIssueDate:
		return &f.IssueDate
	case FieldDueDate:
		return &f.DueDate
	case FieldReceiverName:
		return &f.ReceiverName
	case FieldReceiverAddress:
		return &f.ReceiverAddress
	case FieldSenderName:
		return &f.SenderName
	case FieldSenderAddress:
		return &f.SenderAddress
	case FieldReference:
		return &f.Reference
	case FieldIBAN:
		return &f.IBAN
	case FieldAccountNumber:
		return &f.AccountNumber
	case FieldRoutingNumber:
		return &f.RoutingNumber
	case FieldAccountType:
		return &f.AccountType
	case FieldSortCode:
		return &f.SortCode
	case FieldIFSCCode:
		return &f.IFSCCode
	case FieldBSBCode:
		return &f.BSBCode
	case FieldCNAPSCode:
		return &f.CNAPSCode
	case FieldCLABE:
		return &f.CLABE
	case FieldInstitutionNumber:
		return &f.InstitutionNumber
	case FieldTransitNumber:
		return &f.TransitNumber
	case FieldBankCode:
		return &f.BankCode
	case FieldBranchCode:
		return &f.BranchCode
	default:
		return nil
	}
}

// Get returns the value for key, or "" for unknown keys.
func (f ExtractedFields) Get(key string) string {
	if p := f.fieldPtr(key); p != nil {
		return *p
	}
	return ""
}

// Set assigns key and reports whether the key is known.
func (f *ExtractedFields) Set(key, value string) bool {
	p := f.fieldPtr(key)
	if p == nil {
		return false
	}
	*p = value
	return true
}

// Map returns every key, including empty values.
func (f ExtractedFields) Map() map[string]string {
	out := make(map[string]string, len(InvoiceFieldKeys)+len(BankFieldKeys))
	for _, key := range AllFieldKeys() {
		out[key] = f.Get(key)
	}
	return out
}

// ExtractionResult is what the orchestrator hands back to the client.
type ExtractionResult struct {
	SourceType SourceType      `json:"source_type"`
	URL        string          `json:"url,omitempty"`
	Strategy   PdfStrategy     `json:"pdf_strategy,omitempty"`
	TextLength int             `json:"text_length"`
	Fields     ExtractedFields `json:"fields"`

	// Form state after the fields were applied to a fresh transfer form.
	FormState      string   `json:"form_state"`
	RequiredFields []string `json:"required_fields,omitempty"`
	AutoFilled     []string `json:"auto_filled,omitempty"`
	FormError      string   `json:"form_error,omitempty"`
}
