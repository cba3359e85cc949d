package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("create book: %w", InvalidInput("Title and author are required."))
	if KindOf(err) != KindInvalidInput {
		t.Fatalf("expected invalid input, got %s", KindOf(err))
	}
	if !errors.Is(err, InvalidInput("")) {
		t.Fatalf("expected errors.Is to match by kind")
	}
	if errors.Is(err, NotFound("")) {
		t.Fatalf("did not expect a not found match")
	}
}

func TestPublicHidesInternalDetail(t *testing.T) {
	cause := errors.New("sqlite: disk I/O error at /var/lib/readsync.db")
	tests := []error{Internal(cause), cause}
	for _, err := range tests {
		kind, msg := Public(err)
		if kind != KindInternal {
			t.Fatalf("expected internal kind, got %s", kind)
		}
		if msg != InternalMessage {
			t.Fatalf("internal detail leaked: %q", msg)
		}
	}
	if !errors.Is(Internal(cause), cause) {
		t.Fatalf("internal error should unwrap to its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindInvalidInput:    http.StatusBadRequest,
		KindUnauthenticated: http.StatusUnauthorized,
		KindConflict:        http.StatusConflict,
		KindNotFound:        http.StatusNotFound,
		KindInternal:        http.StatusInternalServerError,
		KindRateLimited:     http.StatusTooManyRequests,
		KindUnavailable:     http.StatusBadGateway,
	}
	for kind, want := range cases {
		if got := HTTPStatus(kind); got != want {
			t.Fatalf("%s: expected %d, got %d", kind, want, got)
		}
	}
}

func TestUnavailableHidesCause(t *testing.T) {
	err := Unavailable("Book lookup is unavailable.", errors.New("dial tcp: connection refused"))
	kind, msg := Public(err)
	if kind != KindUnavailable || msg != "Book lookup is unavailable." {
		t.Fatalf("unexpected public view: %s %q", kind, msg)
	}
}
