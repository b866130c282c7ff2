package pickup

import (
	"errors"
	"fmt"

	"recycle-pickup-api-server/internal/apperr"
)

var (
	ErrStepIncomplete     = apperr.New(apperr.CodeInvalidArgument, "the current step is incomplete")
	ErrNotEligible        = apperr.New(apperr.CodeInvalidArgument, "the materials do not fill enough bin capacity for a pickup")
	ErrDisclaimerRequired = apperr.New(apperr.CodeInvalidArgument, "the disclaimer must be accepted")
	ErrFirstStep          = apperr.New(apperr.CodeFailedPrecondition, "already at the first step")
	ErrLastStep           = apperr.New(apperr.CodeFailedPrecondition, "already at the last step")
	ErrNotLastStep        = apperr.New(apperr.CodeFailedPrecondition, "submit is only available on the last step")
	ErrSubmitting         = apperr.New(apperr.CodeFailedPrecondition, "a submission is already in progress")
	ErrAlreadySubmitted   = apperr.New(apperr.CodeFailedPrecondition, "the pickup request was already submitted")
	ErrMaterialOutOfRange = apperr.New(apperr.CodeInvalidArgument, "material index out of range")
)

// PhotoUploadError is the failure of one photo of one material entry.
type PhotoUploadError struct {
	Material int
	Photo    int
	Ref      string
	Err      error
}

func (e *PhotoUploadError) Error() string {
	return fmt.Sprintf("material %d photo %d (%s): %v", e.Material, e.Photo, e.Ref, e.Err)
}

func (e *PhotoUploadError) Unwrap() error { return e.Err }

// FailedPhotos returns every *PhotoUploadError joined into err.
func FailedPhotos(err error) []*PhotoUploadError {
	var out []*PhotoUploadError
	var walk func(error)
	walk = func(err error) {
		if err == nil {
			return
		}
		if pe, ok := err.(*PhotoUploadError); ok {
			out = append(out, pe)
			return
		}
		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				walk(e)
			}
			return
		}
		walk(errors.Unwrap(err))
	}
	walk(err)
	return out
}

// SubmissionError wraps a failed pickup submission. Its code is the code of
// the underlying failure, so callers can still tell an auth problem from a
// network one.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string { return "pickup submission failed: " + e.Err.Error() }

func (e *SubmissionError) Unwrap() error { return e.Err }
