// internal/domain/auth/dto.go
package auth

// LoginRequest for user login against the backend
type LoginRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginData is the payload inside a successful backend login envelope
type LoginData struct {
	Token      string  `json:"token"`
	User       Profile `json:"user"`
	Subscribed bool    `json:"subscribed"`
}

// LoginEnvelope is the backend response format for /auth/login
type LoginEnvelope struct {
	Success bool      `json:"success"`
	Data    LoginData `json:"data"`
	Message string    `json:"message,omitempty"`
}

// SessionView is what the navigation shell sees of the current session
type SessionView struct {
	Authenticated bool     `json:"authenticated"`
	User          *Profile `json:"user,omitempty"`
}
