package models

import "time"

// Session is the persisted authentication state: the bearer token issued by
// the backend and the account it belongs to.
type Session struct {
	Token    string    `yaml:"token"`
	UserID   string    `yaml:"user_id,omitempty"`
	Email    string    `yaml:"email,omitempty"`
	Username string    `yaml:"username,omitempty"`
	SavedAt  time.Time `yaml:"saved_at"`
}

// IsAuthenticated reports whether the session holds a token.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Token != ""
}

// User is the account summary returned alongside a login token.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	FullName    string `json:"full_name,omitempty"`
	TotalPoints int    `json:"total_points"`
	Level       int    `json:"level"`
}

// LoginResponse is the body returned by the backend's login endpoint.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}
