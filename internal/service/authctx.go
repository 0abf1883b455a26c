package service

// AuthKind tags how a request was authorized.
type AuthKind int

const (
	// AuthAnonymous is a guest request carrying at most an edit token.
	AuthAnonymous AuthKind = iota
	// AuthAdmin is an authenticated administrator session.
	AuthAdmin
	// AuthServiceKey is an internal caller holding the service API key.
	AuthServiceKey
)

// AuthContext is the single authorization value resolved once per
// request and passed explicitly through the service layer.  It
// replaces ad-hoc "admin session or API key or edit token" branching:
// a request is exactly one of the three kinds.
type AuthContext struct {
	Kind      AuthKind
	AdminID   uint64 // set for AuthAdmin
	EditToken string // set for AuthAnonymous self-service calls
}

// Admin returns an administrator context.
func Admin(adminID uint64) AuthContext {
	return AuthContext{Kind: AuthAdmin, AdminID: adminID}
}

// ServiceKey returns an internal service-key context.
func ServiceKey() AuthContext { return AuthContext{Kind: AuthServiceKey} }

// Anonymous returns a guest context carrying an edit token (possibly
// empty).
func Anonymous(editToken string) AuthContext {
	return AuthContext{Kind: AuthAnonymous, EditToken: editToken}
}

// Privileged reports whether the context bypasses the self-service
// rules (payment freeze, edit window, immutable room set).
func (a AuthContext) Privileged() bool {
	return a.Kind == AuthAdmin || a.Kind == AuthServiceKey
}
