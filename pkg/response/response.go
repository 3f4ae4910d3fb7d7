package response

// Response is the body of every error reply
type Response struct {
	Status     string              `json:"status"`      // always "error"
	StatusCode int                 `json:"status_code"` // HTTP status code
	Message    string              `json:"message"`
	Errors     map[string][]string `json:"errors,omitempty"` // per-field validation messages
}

// Error returns a standard error response wrapping the error message
func Error(statusCode int, message string) Response {
	return Response{
		Status:     "error",
		StatusCode: statusCode,
		Message:    message,
	}
}

// Validation returns an error response carrying per-field messages
func Validation(statusCode int, message string, fields map[string][]string) Response {
	r := Error(statusCode, message)
	r.Errors = fields
	return r
}

// Message is the body of replies that only confirm an action
type Message struct {
	Message string `json:"message"`
}
