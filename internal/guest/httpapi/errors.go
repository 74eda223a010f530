package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/spicemart/backend/internal/guest/app"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusFromErr translates the guest layer's error taxonomy into gRPC status
// codes, the common currency between this service's transports.
func statusFromErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, app.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, app.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func httpStatusFromGRPC(err error) (int, string, string) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	switch st.Code() {
	case codes.InvalidArgument:
		return http.StatusBadRequest, "INVALID_ARGUMENT", st.Message()
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", st.Message()
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", st.Message()
	case codes.Canceled:
		// Client went away; the status line is moot but logged.
		return http.StatusServiceUnavailable, "UNAVAILABLE", st.Message()
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}
