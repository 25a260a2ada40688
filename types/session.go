package types

// Session is the authenticated identity established at login and threaded
// explicitly through every operation. It carries exactly the tuple the
// session token encodes; nothing else is retained server-side.
type Session struct {
	UserID   int    `json:"user_id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}
