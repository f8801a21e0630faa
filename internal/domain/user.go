package domain

import "time"

// User is a workflow participant. Role decides which operations the user may call.
type User struct {
	ID        string
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserPatch carries the fields an admin may change on an existing user.
type UserPatch struct {
	Name *string
	Role *Role
}

// Apply merges the patch into u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
}

// Actor identifies the user performing an operation.
type Actor struct {
	ID   string
	Name string
	Role Role
}

// ActorFromUser builds an actor for u.
func ActorFromUser(u *User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Name: u.Name, Role: u.Role}
}
