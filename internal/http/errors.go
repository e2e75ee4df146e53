package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/loan"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

// validationFields names the request field behind each domain validation
// error that services report without a field of their own.
var validationFields = []struct {
	err   error
	field string
}{
	{core.ErrInvalidKind, "kind"},
	{core.ErrEmptyCategory, "category"},
	{core.ErrCategoryTooLong, "category"},
	{core.ErrDescriptionTooLong, "description"},
	{core.ErrInvalidAmount, "amount"},
	{core.ErrInvalidPayment, "amount"},
	{core.ErrEmptyName, "name"},
	{core.ErrNameTooLong, "name"},
	{core.ErrInvalidRatePeriod, "ratePeriod"},
	{core.ErrInvalidPrincipal, "principal"},
	{core.ErrInvalidRate, "interestRate"},
	{core.ErrInvalidTerm, "termYears"},
	{core.ErrInvalidTarget, "targetAmount"},
	{core.ErrInvalidDate, "date"},
}

func validationField(err error) string {
	var fe *fieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	var ve *loan.ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	for _, v := range validationFields {
		if errors.Is(err, v.err) {
			return v.field
		}
	}
	return ""
}

func isValidation(err error) bool {
	var fe *fieldError
	return errors.As(err, &fe) ||
		errors.Is(err, services.ErrInvalidInput) ||
		errors.Is(err, loan.ErrValidation) ||
		errors.Is(err, query.ErrInvalidCriteria)
}

// writeError maps err to a status code and JSON body. Only unexpected
// errors are logged; their message never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errMalformedBody):
		BadRequestError(err.Error()).Write(w)
	case isValidation(err):
		msg := err.Error()
		var ve *loan.ValidationError
		if errors.As(err, &ve) {
			msg = ve.Reason
		} else {
			var fe *fieldError
			if errors.As(err, &fe) {
				msg = fe.Err.Error()
			}
		}
		ValidationError(validationField(err), msg).Write(w)
	case errors.Is(err, storage.ErrNotFound):
		NotFoundError("not found").Write(w)
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
		InternalServerError("internal server error").Write(w)
	}
}
