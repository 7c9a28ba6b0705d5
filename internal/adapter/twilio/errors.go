package twilio

import "fmt"

// APIError is the error body Twilio returns for rejected requests.
type APIError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("twilio: %s (code %d, status %d)", e.Message, e.Code, e.Status)
	}
	return fmt.Sprintf("twilio: %s (status %d)", e.Message, e.Status)
}
