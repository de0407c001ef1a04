package domain

// SessionUser is the authenticated identity visible to the UI.
type SessionUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// SessionRecord is the persisted session: {"user":{"id":..,"username":..}}.
type SessionRecord struct {
	User *SessionUser `json:"user"`
}

// WellFormed reports whether the record names a user.
func (r SessionRecord) WellFormed() bool {
	return r.User != nil && r.User.ID != "" && r.User.Username != ""
}
