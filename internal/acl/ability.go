// internal/acl/ability.go
//
// Ability checks for the current user and space.
//
// Context
// -------
// Permissions derive from two roles only:
//
//	user.role          admin  → manage all
//	space_member.role  admin  → manage Billing, Member, Space
//	                   member → read Space
//
// The space owner is always treated as a space admin.  Guests and anonymous
// callers can do nothing.  Abilities are plain values built per request
// from the identity memo; no database access happens here.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package acl

import (
	"github.com/yanizio/pollspace/internal/space"
	"github.com/yanizio/pollspace/internal/user"
)

// Actions.
const (
	Read   = "read"
	Manage = "manage"
)

// Subjects.
const (
	All     = "all"
	Billing = "Billing"
	Member  = "Member"
	Space   = "Space"
)

type rule struct {
	action  string
	subject string
}

// Ability answers Can(action, subject).  The zero value denies everything.
type Ability struct {
	rules []rule
}

// Can reports whether action on subject is allowed.  `manage` implies every
// action, and subject `all` matches every subject.
func (a Ability) Can(action, subject string) bool {
	for _, r := range a.rules {
		if (r.action == action || r.action == Manage) &&
			(r.subject == subject || r.subject == All) {
			return true
		}
	}
	return false
}

// ForUser builds the instance-level ability.
func ForUser(u *user.User) Ability {
	if u == nil || u.IsAnonymous {
		return Ability{}
	}
	var a Ability
	if u.IsAdmin() {
		a.rules = append(a.rules, rule{Manage, All})
	}
	return a
}

// ForMember builds the ability of u inside d.
func ForMember(d *space.DTO, u *user.User) Ability {
	if u == nil || u.IsAnonymous || d == nil {
		return Ability{}
	}
	var a Ability
	a.rules = append(a.rules, rule{Read, Space})
	if d.Role == space.RoleAdmin || d.IsOwner(u.ID) {
		a.rules = append(a.rules,
			rule{Manage, Billing},
			rule{Manage, Member},
			rule{Manage, Space},
		)
	}
	return a
}
