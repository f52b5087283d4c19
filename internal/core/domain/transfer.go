package domain

type TransferRequest struct {
	ReceiverName string            `json:"receiver_name"`
	Amount       string            `json:"amount"`
	Currency     string            `json:"currency"`
	Reference    string            `json:"reference"`
	BankDetails  map[string]string `json:"bank_details"`
}

type TransferResult struct {
	QuoteID     string `json:"quote_id"`
	RecipientID string `json:"recipient_id"`
	TransferID  string `json:"transfer_id"`
	Status      string `json:"status,omitempty"`
}

// RecipientSpec describes how a currency's bank fields map onto a sandbox recipient.
type RecipientSpec struct {
	Type       string            `json:"type" yaml:"type"`
	DetailKeys map[string]string `json:"detail_keys" yaml:"detail_keys"`
}
