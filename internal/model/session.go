package model

import "time"

// Session ties the authenticated user to the running client.
type Session struct {
	User     *User     `json:"user"`
	Token    string    `json:"token"`
	IssuedAt time.Time `json:"issued_at"`
}

// PersistedSession is the record written to local storage so a session
// survives a restart.
type PersistedSession struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Token    string `json:"token"`
}
