package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
	"github.com/turtacn/ScaffoldNet/pkg/types/common"
)

// DefaultMaxBodySize bounds request bodies when the server does not
// configure one.
const DefaultMaxBodySize int64 = 4 << 20

// writeJSON writes data wrapped in the success envelope.
func writeJSON[T any](w http.ResponseWriter, r *http.Request, statusCode int, data T) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = chimw.GetReqID(r.Context())
	encode(w, statusCode, resp)
}

func writePaged[T any](w http.ResponseWriter, r *http.Request, data T, page common.Page) {
	resp := common.NewPagedResponse(data, page)
	resp.RequestID = chimw.GetReqID(r.Context())
	encode(w, http.StatusOK, resp)
}

func encode(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeAppError maps err to a status through its error code.  Server-side
// failures are logged and masked.
func writeAppError(w http.ResponseWriter, r *http.Request, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}

	message := errors.DefaultMessageForCode(code)
	var detail string
	var ae *errors.AppError
	if errors.As(err, &ae) && status < http.StatusInternalServerError {
		message = ae.Message
		detail = ae.Detail
	}
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			logging.String("path", r.URL.Path),
			logging.String("code", string(code)),
			logging.Err(err))
	}

	resp := common.NewErrorResponse(string(code), message, detail)
	resp.RequestID = chimw.GetReqID(r.Context())
	encode(w, status, resp)
}

// decodeJSON reads a single JSON object into dst.  Unknown fields and
// trailing data are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodySize
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errors.New(errors.ErrCodeLimitExceeded, "request body too large")
		}
		if err == io.EOF {
			return errors.InvalidParam("request body is empty")
		}
		return errors.InvalidParam("malformed request body").WithDetail(err.Error())
	}
	if dec.More() {
		return errors.InvalidParam("request body must contain a single object")
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.InvalidParam("query parameter must be an integer").WithDetail(name)
	}
	return n, nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

//Personal.AI order the ending
