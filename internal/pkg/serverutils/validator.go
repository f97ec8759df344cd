package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"notesync-be/internal/pkg/apperror"
	"notesync-be/internal/store"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterValidation("noteid", func(fl validator.FieldLevel) bool {
		id := fl.Field().String()
		return store.ValidNoteID(id) && !strings.HasSuffix(id, store.BackupSuffix)
	})
	return v
}

// ValidateRequest checks the struct's validate tags and reports the first
// failures as INVALID_REQUEST.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperror.Wrap(apperror.CodeInvalidRequest, "invalid request", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return apperror.InvalidRequest("%s", strings.Join(msgs, "; "))
}
