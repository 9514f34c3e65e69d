// internal/space/model.go
//
// Space is a workspace owned by one user and shared with members.  The
// request-scoped view of a space is DTO: the space plus the caller's
// membership role.

package space

// Member roles stored in space_member.role.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Tiers stored in space.tier.
const (
	TierHobby = "hobby"
	TierPro   = "pro"
)

// DTO is the current space as seen by one member.
type DTO struct {
	ID      string  `db:"id"       json:"id"`
	OwnerID string  `db:"owner_id" json:"ownerId"`
	Name    string  `db:"name"     json:"name"`
	Tier    string  `db:"tier"     json:"tier"`
	Image   *string `db:"image"    json:"image,omitempty"`
	Role    string  `db:"role"     json:"role"`
}

// IsOwner reports whether userID owns the space.
func (d *DTO) IsOwner(userID string) bool { return d != nil && d.OwnerID == userID }
