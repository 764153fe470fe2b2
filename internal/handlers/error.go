package handlers

// ErrorResponse is the webhook failure body. Success is always false.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
