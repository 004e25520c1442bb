package utils

import "time"

// APIResponse is the envelope every admission endpoint replies with. Resolved
// scans ride in Data; Success tells the scanner UI whether anyone was
// admitted, so it can branch without digging into the payload. Error carries
// transport and validation detail only, never an admission outcome.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, detail string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     detail,
		Timestamp: time.Now(),
	}
}

// ScanResponse wraps a resolved scan. A rejection is a resolved answer, not
// a transport failure, so Error stays empty and the outcome travels in Data.
func ScanResponse(accepted bool, message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   accepted,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}
