package grpc

import (
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

var statusCodes = map[int]codes.Code{
	http.StatusBadRequest:            codes.InvalidArgument,
	http.StatusUnprocessableEntity:   codes.InvalidArgument,
	http.StatusNotFound:              codes.NotFound,
	http.StatusConflict:              codes.AlreadyExists,
	http.StatusRequestEntityTooLarge: codes.ResourceExhausted,
	http.StatusTooManyRequests:       codes.ResourceExhausted,
	http.StatusServiceUnavailable:    codes.Unavailable,
	http.StatusBadGateway:            codes.Unavailable,
	http.StatusGatewayTimeout:        codes.DeadlineExceeded,
	http.StatusNotImplemented:        codes.Unimplemented,
	http.StatusUnauthorized:          codes.Unauthenticated,
	http.StatusForbidden:             codes.PermissionDenied,
}

// toStatus converts an application error into a gRPC status whose message
// starts with the bracketed error code.  Server-side messages are masked.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && errors.GetCode(err) == errors.CodeUnknown {
		return err
	}
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	httpStatus := errors.HTTPStatusForCode(code)
	grpcCode, ok := statusCodes[httpStatus]
	if !ok {
		grpcCode = codes.Internal
	}

	msg := errors.DefaultMessageForCode(code)
	var ae *errors.AppError
	if errors.As(err, &ae) && httpStatus < http.StatusInternalServerError {
		msg = ae.Message
		if ae.Detail != "" {
			msg += ": " + ae.Detail
		}
	}
	return status.Error(grpcCode, "["+string(code)+"] "+msg)
}

// FromStatus recovers the application error carried by a status produced
// by toStatus.  Other errors are wrapped as external service failures.
func FromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	msg := st.Message()
	if strings.HasPrefix(msg, "[") {
		if end := strings.Index(msg, "] "); end > 0 {
			return errors.New(errors.ErrorCode(msg[1:end]), msg[end+2:])
		}
	}
	switch st.Code() {
	case codes.Unavailable:
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "grpc call failed")
	case codes.DeadlineExceeded, codes.Canceled:
		return errors.Wrap(err, errors.ErrCodeTimeout, "grpc call failed")
	}
	return errors.Wrap(err, errors.ErrCodeExternalService, "grpc call failed")
}

//Personal.AI order the ending
