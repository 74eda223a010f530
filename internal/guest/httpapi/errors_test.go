package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/spicemart/backend/internal/guest/app"
)

func TestHTTPStatusFromAppErrors(t *testing.T) {
	t.Run("InvalidArgument -> 400", func(t *testing.T) {
		err := fmt.Errorf("quantity must be >= 1: %w", app.ErrInvalidArgument)
		gotStatus, gotCode, _ := httpStatusFromGRPC(statusFromErr(err))
		if gotStatus != http.StatusBadRequest || gotCode != "INVALID_ARGUMENT" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("NotFound -> 404", func(t *testing.T) {
		err := fmt.Errorf("product p1: %w", app.ErrNotFound)
		gotStatus, gotCode, _ := httpStatusFromGRPC(statusFromErr(err))
		if gotStatus != http.StatusNotFound || gotCode != "NOT_FOUND" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("Unavailable -> 503", func(t *testing.T) {
		err := fmt.Errorf("%w: redis gone", app.ErrUnavailable)
		gotStatus, gotCode, _ := httpStatusFromGRPC(statusFromErr(err))
		if gotStatus != http.StatusServiceUnavailable || gotCode != "UNAVAILABLE" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("unclassified error -> 500", func(t *testing.T) {
		gotStatus, gotCode, _ := httpStatusFromGRPC(statusFromErr(errors.New("boom")))
		if gotStatus != http.StatusInternalServerError || gotCode != "INTERNAL" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})

	t.Run("non-grpc error -> 500", func(t *testing.T) {
		gotStatus, gotCode, _ := httpStatusFromGRPC(errors.New("boom"))
		if gotStatus != http.StatusInternalServerError || gotCode != "INTERNAL" {
			t.Fatalf("got (%d,%s)", gotStatus, gotCode)
		}
	})
}
