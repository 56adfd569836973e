package api

import (
	"errors"
	"net/http"

	"github.com/okian/mimicoo/internal/adapters/repository"
	service "github.com/okian/mimicoo/internal/app"
	"github.com/okian/mimicoo/internal/domain/practice"
	"github.com/okian/mimicoo/internal/domain/signal"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrTooLarge     = errors.New("payload too large")
)

// KindError tags an error with the operation that produced it and the
// sentinel kind it belongs to. Both the kind and the cause match errors.Is.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

func (e *KindError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind tags err with kind and op.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// Wrap records op on err; a nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// classify maps an error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, signal.ErrInvalidArgument),
		errors.Is(err, practice.ErrEmptyRecording):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, practice.ErrPermissionDenied):
		return http.StatusForbidden, "permission_denied"
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, practice.ErrSessionClosed):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, practice.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, ErrBackpressure),
		errors.Is(err, service.ErrBackpressure),
		errors.Is(err, repository.ErrCapacity):
		return http.StatusTooManyRequests, "backpressure"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
