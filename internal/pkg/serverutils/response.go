package serverutils

import "notesync-be/internal/pkg/apperror"

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Code    int           `json:"code"`
	Error   apperror.Code `json:"error"`
	Message string        `json:"message"`
}

func ErrorResponse(status int, code apperror.Code, message string) ErrorBody {
	return ErrorBody{
		Code:    status,
		Error:   code,
		Message: message,
	}
}
