package command

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-custody/core"
	goerrors "github.com/goliatone/go-errors"
)

func missingService(operation string) error {
	return goerrors.New(fmt.Sprintf("command: %s service is required", operation), goerrors.CategoryInternal).
		WithCode(http.StatusInternalServerError).
		WithTextCode(core.CustodyErrorInternal)
}

// invalidRequest reports a request that failed its own Validate. A missing
// or zero caller is surfaced as a field error on "caller".
func invalidRequest(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrInvalidAccount) {
		return goerrors.NewValidation(fmt.Sprintf("command: invalid %s request", operation), goerrors.FieldError{
			Field:   "caller",
			Message: err.Error(),
		}).
			WithCode(http.StatusBadRequest).
			WithTextCode(core.CustodyErrorBadInput)
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, fmt.Sprintf("command: invalid %s request", operation)).
		WithCode(http.StatusBadRequest).
		WithTextCode(core.CustodyErrorBadInput)
}
