package auth

// Identity scopes local progress and bookmarks. The zero value is the
// anonymous identity.
type Identity struct {
	UserID string
}

// AnonymousIdentity is the identity of a reader without an account.
var AnonymousIdentity = Identity{}

// User returns the identity of a signed-in user.
func User(userID string) Identity {
	return Identity{UserID: userID}
}

// IsAnonymous reports whether the identity has no user id.
func (i Identity) IsAnonymous() bool {
	return i.UserID == ""
}

// Key is the storage key for the identity. AnonymousIdentity maps to "".
func (i Identity) Key() string {
	return i.UserID
}

// UserIDPtr returns the user id for nullable columns, nil when anonymous.
func (i Identity) UserIDPtr() *string {
	if i.UserID == "" {
		return nil
	}
	id := i.UserID
	return &id
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return "user:" + i.UserID
}
