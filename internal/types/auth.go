package types

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username string `json:"username" example:"jane"`
	Email    string `json:"email" example:"jane@example.com"`
	Password string `json:"password" example:"Str0ngP@ss!"`
	Contact  string `json:"contact,omitempty" example:"+91 98765 43210"`
}

// LoginRequest represents the expected JSON body for local login.
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" example:"jane@example.com"`
	Password        string `json:"password" example:"Str0ngP@ss!"`
}

// GoogleLoginRequest carries the Google ID token obtained by the client.
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// AuthResponse is returned by register, login and Google login.
type AuthResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Login successful"`
	User    PublicUser `json:"user"`
	Token   string     `json:"token"`
}

// UserResponse is returned by the get-user endpoint.
type UserResponse struct {
	Success bool         `json:"success" example:"true"`
	Message string       `json:"message,omitempty"`
	User    *UserProfile `json:"user"`
}

// Response represents a generic API response for success or error messages.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Operation successful"`
	Error   string `json:"error,omitempty"`
}

// Claims are the custom claims carried by a session token.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}
