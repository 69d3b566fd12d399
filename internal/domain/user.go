package domain

// Known roles. Role strings are free-form in the store; these constants name
// the two roles the HTTP surface gates on.
const (
	RoleAdmin  = "admin"
	RoleMortal = "mortal"
)

// User is an account record. Owned by an external service; read-only here.
type User struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}
