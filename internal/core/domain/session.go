package domain

import "time"

// OnlineSession is the live-session record kept in the session store for the
// lifetime of an access token. It exists for observability (listing and
// forcing out sessions) and plays no part in authorization decisions.
type OnlineSession struct {
	Token     string    `json:"-"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	SourceIP  string    `json:"source_ip"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
