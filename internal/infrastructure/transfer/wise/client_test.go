package wise

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

type recordedCall struct {
	path string
	auth string
	body map[string]any
}

func newSandbox(t *testing.T, responses map[string]string, status map[string]int) (*httptest.Server, *[]recordedCall) {
	t.Helper()
	var mu sync.Mutex
	calls := []recordedCall{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		calls = append(calls, recordedCall{path: r.URL.Path, auth: r.Header.Get("Authorization"), body: body})
		mu.Unlock()
		if code, ok := status[r.URL.Path]; ok {
			http.Error(w, `{"errors":[{"code":"error.invalid"}]}`, code)
			return
		}
		resp, ok := responses[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func usdRequest() (domain.TransferRequest, domain.RecipientSpec) {
	return domain.TransferRequest{
			ReceiverName: "ACME Corp",
			Amount:       "1250.50",
			Currency:     "USD",
			Reference:    "INV-2041",
			BankDetails: map[string]string{
				"routing_number": "026009593",
				"account_number": "12345678",
				"account_type":   "CHECKING",
			},
		}, domain.RecipientSpec{
			Type: "aba",
			DetailKeys: map[string]string{
				"routing_number": "abartn",
				"account_number": "accountNumber",
				"account_type":   "accountType",
			},
		}
}

func TestCreateTransferRunsThreeSteps(t *testing.T) {
	server, calls := newSandbox(t, map[string]string{
		"/v3/profiles/42/quotes": `{"id":"quote-uuid"}`,
		"/v1/accounts":           `{"id":9001}`,
		"/v1/transfers":          `{"id":777,"status":"incoming_payment_waiting"}`,
	}, nil)

	client := New(Config{BaseURL: server.URL, Token: "tok", ProfileID: "42"}, nil)
	client.newID = func() string { return "txn-1" }

	req, recipient := usdRequest()
	res, err := client.CreateTransfer(context.Background(), req, recipient)
	if err != nil {
		t.Fatalf("CreateTransfer() error = %v", err)
	}
	if res.QuoteID != "quote-uuid" || res.RecipientID != "9001" || res.TransferID != "777" || res.Status != "incoming_payment_waiting" {
		t.Fatalf("unexpected result %+v", res)
	}

	if len(*calls) != 3 {
		t.Fatalf("expected 3 calls, got %d", len(*calls))
	}
	quote, account, transfer := (*calls)[0], (*calls)[1], (*calls)[2]
	if quote.auth != "Bearer tok" || quote.body["targetCurrency"] != "USD" || quote.body["targetAmount"] != 1250.5 || quote.body["sourceCurrency"] != "EUR" {
		t.Fatalf("unexpected quote call %+v", quote)
	}
	details, _ := account.body["details"].(map[string]any)
	if account.body["type"] != "aba" || account.body["profile"] != float64(42) || details["abartn"] != "026009593" || details["accountType"] != "CHECKING" {
		t.Fatalf("unexpected account call %+v", account)
	}
	if transfer.body["targetAccount"] != float64(9001) || transfer.body["quoteUuid"] != "quote-uuid" || transfer.body["customerTransactionId"] != "txn-1" {
		t.Fatalf("unexpected transfer call %+v", transfer)
	}
	if ref, _ := transfer.body["details"].(map[string]any); ref["reference"] != "INV-2041" {
		t.Fatalf("unexpected transfer details %+v", transfer.body["details"])
	}
}

func TestCreateTransferStopsWhenQuoteHasNoID(t *testing.T) {
	server, calls := newSandbox(t, map[string]string{
		"/v3/profiles/42/quotes": `{}`,
	}, nil)

	req, recipient := usdRequest()
	_, err := New(Config{BaseURL: server.URL, Token: "tok", ProfileID: "42"}, nil).CreateTransfer(context.Background(), req, recipient)
	if err == nil || !strings.Contains(err.Error(), "quote") {
		t.Fatalf("expected missing quote id error, got %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected to stop after the quote, got %d calls", len(*calls))
	}
}

func TestCreateTransferSurfacesHTTPError(t *testing.T) {
	server, _ := newSandbox(t, map[string]string{
		"/v3/profiles/42/quotes": `{"id":"q"}`,
	}, map[string]int{"/v1/accounts": http.StatusUnprocessableEntity})

	req, recipient := usdRequest()
	_, err := New(Config{BaseURL: server.URL, Token: "tok", ProfileID: "42"}, nil).CreateTransfer(context.Background(), req, recipient)
	if err == nil || !strings.Contains(err.Error(), "error.invalid") {
		t.Fatalf("expected recipient error with body, got %v", err)
	}
}

func TestCreateTransferMapsUnauthorized(t *testing.T) {
	server, _ := newSandbox(t, nil, map[string]int{"/v3/profiles/42/quotes": http.StatusUnauthorized})

	req, recipient := usdRequest()
	_, err := New(Config{BaseURL: server.URL, Token: "tok", ProfileID: "42"}, nil).CreateTransfer(context.Background(), req, recipient)
	if !domain.IsKind(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestCreateTransferRequiresCredentials(t *testing.T) {
	req, recipient := usdRequest()
	_, err := New(Config{}, nil).CreateTransfer(context.Background(), req, recipient)
	if !domain.IsKind(err, domain.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
