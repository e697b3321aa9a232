package server

// HTTPError is the unified error body every endpoint returns on failure.
type HTTPError struct {
	Error string `json:"error"`
}

// FeedbackRequest attaches up/down feedback to a stored exchange.
type FeedbackRequest struct {
	SessionID    string `json:"sessionId"`
	MessageID    string `json:"messageId"`
	FeedbackType string `json:"feedbackType"` // "up" or "down"
	FeedbackText string `json:"feedbackText,omitempty"`
}

// AuthLoginRequest is the admin login payload.
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries the issued JWT.
type TokenResponse struct {
	Token string `json:"token"`
}
