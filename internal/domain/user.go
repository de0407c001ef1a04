package domain

// User is an account able to own tickets. Password holds the digest,
// never the plaintext.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session returns the projection stored in the session record.
func (u User) Session() SessionUser {
	return SessionUser{ID: u.ID, Username: u.Username}
}
