package handler

// Response is the envelope every JSON endpoint replies with: a status
// string, an optional human-readable message, and the payload. Readings,
// reminders, inventory and alerts all share it so clients parse one shape.
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}
