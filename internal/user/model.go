// internal/user/model.go
//
// User row as stored in the `user` table.
//
// Notes
// -----
// • Nullable columns map to pointers; sqlx scans NULL to nil.
// • Column list in repository.go matches these tags; update both together.

package user

import "time"

// Roles stored in user.role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is a registered account.  Guests never have a row here.
type User struct {
	ID            string    `db:"id"              json:"id"`
	Name          string    `db:"name"            json:"name"`
	Email         string    `db:"email"           json:"email"`
	EmailVerified bool      `db:"email_verified"  json:"emailVerified"`
	Image         *string   `db:"image"           json:"image,omitempty"`
	Role          string    `db:"role"            json:"role"`
	TimeZone      *string   `db:"time_zone"       json:"timeZone,omitempty"`
	Locale        *string   `db:"locale"          json:"locale,omitempty"`
	TimeFormat    *string   `db:"time_format"     json:"timeFormat,omitempty"`
	WeekStart     *int      `db:"week_start"      json:"weekStart,omitempty"`
	IsAnonymous   bool      `db:"is_anonymous"    json:"isAnonymous"`
	CreatedAt     time.Time `db:"created_at"      json:"createdAt"`
}

// IsAdmin reports whether the instance-wide admin role is set.
func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }
