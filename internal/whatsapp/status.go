package whatsapp

// Delivery status names stored on messages.
const (
	StatusError     = "error"
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusPlayed    = "played"
	StatusUnknown   = "unknown"
)

var statusNames = [...]string{
	StatusError,
	StatusPending,
	StatusSent,
	StatusDelivered,
	StatusRead,
	StatusPlayed,
}

// StatusName maps a provider numeric ack code to its status name.
func StatusName(code int) string {
	if code < 0 || code >= len(statusNames) {
		return StatusUnknown
	}
	return statusNames[code]
}
