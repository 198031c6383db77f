package models

// Session identifies the signed-in user. The zero value means signed out.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

func (s Session) Valid() bool {
	return s.UserID != ""
}
