package models

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body shape of every API response.
type Envelope struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Data    any                 `json:"data,omitempty"`
	Error   any                 `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// TokenPayload is the data returned on successful login.
type TokenPayload struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}
