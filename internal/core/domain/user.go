package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User models the identity attached to an authenticated session. The
// server is the source of truth for every field; the client never
// fabricates or mutates an identity locally.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role"`
}

// FullName is the display name used by the terminal views.
func (u User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RegisterInput is the payload for account creation. Role is optional;
// the server defaults it to RoleUser when empty.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=user admin"`
}
