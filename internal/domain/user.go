package domain

// User is the authenticated caller.
type User struct {
	UID   string
	Name  string
	Email string
}

// DisplayName falls back to "Anonymous" for users without a profile name.
func (u User) DisplayName() string {
	if u.Name == "" {
		return "Anonymous"
	}
	return u.Name
}
