package dto

// Envelope wraps every successful JSON response. Data is always present and
// may be null.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}

func OK(data interface{}, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

func Fail(message string) ErrorResponse {
	return ErrorResponse{Success: false, Error: message}
}
