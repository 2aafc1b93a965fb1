package core

import (
	"errors"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CustodyErrorWrapDisabled   = "CUSTODY_WRAP_DISABLED"
	CustodyErrorUnwrapDisabled = "CUSTODY_UNWRAP_DISABLED"
	CustodyErrorBelowMinimum   = "CUSTODY_BELOW_MINIMUM"
	CustodyErrorZeroAmount     = "CUSTODY_ZERO_AMOUNT"
	CustodyErrorNotOwner       = "CUSTODY_NOT_OWNER"
	CustodyErrorBadInput       = "CUSTODY_BAD_INPUT"
	CustodyErrorOutOfRange     = "CUSTODY_OUT_OF_RANGE"
	CustodyErrorInternal       = "CUSTODY_INTERNAL_ERROR"
)

const (
	messageWrapDisabled   = "wrapping disabled"
	messageUnwrapDisabled = "unwrapping disabled"
	messageBelowMinimum   = "amount below minimum wrappable unit"
	messageZeroAmount     = "cannot unwrap zero units"
	messageNotOwner       = "caller is not the owner"
)

func newWrapDisabledError() *goerrors.Error {
	return newCustodyError(messageWrapDisabled, goerrors.CategoryOperation, CustodyErrorWrapDisabled)
}

func newUnwrapDisabledError() *goerrors.Error {
	return newCustodyError(messageUnwrapDisabled, goerrors.CategoryOperation, CustodyErrorUnwrapDisabled)
}

func newBelowMinimumError() *goerrors.Error {
	return newCustodyError(messageBelowMinimum, goerrors.CategoryValidation, CustodyErrorBelowMinimum)
}

func newZeroAmountError() *goerrors.Error {
	return newCustodyError(messageZeroAmount, goerrors.CategoryValidation, CustodyErrorZeroAmount)
}

func newNotOwnerError() *goerrors.Error {
	return newCustodyError(messageNotOwner, goerrors.CategoryAuthz, CustodyErrorNotOwner)
}

func newOutOfRangeError(message string) *goerrors.Error {
	return newCustodyError(message, goerrors.CategoryInternal, CustodyErrorOutOfRange)
}

func IsWrapDisabled(err error) bool   { return IsTextCode(err, CustodyErrorWrapDisabled) }
func IsUnwrapDisabled(err error) bool { return IsTextCode(err, CustodyErrorUnwrapDisabled) }
func IsBelowMinimum(err error) bool   { return IsTextCode(err, CustodyErrorBelowMinimum) }
func IsZeroAmount(err error) bool     { return IsTextCode(err, CustodyErrorZeroAmount) }
func IsNotOwner(err error) bool       { return IsTextCode(err, CustodyErrorNotOwner) }

// IsTextCode reports whether err carries a go-errors envelope with textCode.
func IsTextCode(err error, textCode string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr == nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), strings.TrimSpace(textCode))
}

func custodyErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureCustodyErrorEnvelope(richErr)
	}

	switch {
	case errors.Is(err, ErrInvalidPrecision):
		return wrapCustodyError(err, goerrors.CategoryInternal, CustodyErrorOutOfRange)
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidAccount), errors.Is(err, ErrInvalidDirection),
		errors.Is(err, ErrCustodianCaller):
		return wrapCustodyError(err, goerrors.CategoryBadInput, CustodyErrorBadInput)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "out of range"), strings.Contains(msg, "overflow"), strings.Contains(msg, "precision"):
		return newCustodyError(err.Error(), goerrors.CategoryInternal, CustodyErrorOutOfRange)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newCustodyError(err.Error(), goerrors.CategoryBadInput, CustodyErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureCustodyErrorEnvelope(mapped)
}

func newCustodyError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureCustodyErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

// wrapCustodyError keeps err as the source so sentinel checks still match.
func wrapCustodyError(err error, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureCustodyErrorEnvelope(
		goerrors.Wrap(err, category, err.Error()).
			WithTextCode(textCode),
	)
}

func ensureCustodyErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = custodyHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultCustodyTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultCustodyTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return CustodyErrorBadInput
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return CustodyErrorNotOwner
	default:
		return CustodyErrorInternal
	}
}

func custodyHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict, goerrors.CategoryOperation:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
