package api

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest          = "bad_request"
	CodeValidation          = "validation_failed"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeNotFound            = "not_found"
	CodeConflict            = "conflict"
	CodeSubmitInProgress    = "submit_in_progress"
	CodeUploadFailed        = "upload_failed"
	CodeUnavailable         = "service_unavailable"
	CodeInternal            = "internal_error"
	CodeTransformationsOff  = "storage_image_transformations_blocked"
	CodeFileNotFound        = "storage_file_not_found"
	CodeInvalidPreviewInput = "storage_invalid_preview_options"
)

func OK(data any) Response {
	return Response{Success: true, Data: data}
}

func Fail(code, message string, details any) Response {
	return Response{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}
