package session

// User is the point-in-time account snapshot embedded in a [Record]. The
// persistent user store remains the source of truth; writes there are followed
// by a snapshot refresh here, never the other way around.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Status      uint8  `json:"status"`
}

// Record is the cache-resident session state for one user. Exactly one Record
// exists per user at a time; writing a new one supersedes the old. Secret is
// the opaque value mirrored into every signed token issued for this session;
// equality between the two is the authorization check.
type Record struct {
	UserID      string `json:"user_id"`
	Secret      string `json:"secret"`
	User        User   `json:"user"`
	CreatedAt   int64  `json:"created_at"`
	RefreshedAt int64  `json:"refreshed_at"`
}
