package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
)

func TestTransportFailureClassification(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{errors.New("bad payload"), false},
		{fmt.Errorf("nats request: %w", nats.ErrNoResponders), true},
		{fmt.Errorf("nats request: %w", nats.ErrTimeout), true},
		{context.DeadlineExceeded, true},
	}
	for _, tc := range cases {
		if got := isTransportFailure(tc.err); got != tc.want {
			t.Fatalf("isTransportFailure(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestWrapTemporaryIsIdempotent(t *testing.T) {
	err := wrapTemporary(nats.ErrNoServers)
	if !domain.IsKind(err, domain.ErrTemporary) || !errors.Is(err, nats.ErrNoServers) {
		t.Fatalf("unexpected wrap %v", err)
	}
	if again := wrapTemporary(err); again != err {
		t.Fatalf("expected already temporary error to pass through")
	}
}
