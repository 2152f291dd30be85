package auth

// Scope carries one upstream bearer token, bound to exactly one audience.
// Student and admin credentials never share a context: each request gets the
// scope its route group extracted, passed by value down the call chain.
type Scope struct {
	kind  ScopeKind
	token string
}

// ScopeKind distinguishes the two portal audiences.
type ScopeKind string

const (
	ScopeStudent ScopeKind = "student"
	ScopeAdmin   ScopeKind = "admin"
)

// NewStudentScope wraps a student bearer token.
func NewStudentScope(token string) Scope {
	return Scope{kind: ScopeStudent, token: token}
}

// NewAdminScope wraps an admin bearer token.
func NewAdminScope(token string) Scope {
	return Scope{kind: ScopeAdmin, token: token}
}

// Kind returns the audience this scope belongs to.
func (s Scope) Kind() ScopeKind { return s.kind }

// Token returns the opaque upstream bearer token.
func (s Scope) Token() string { return s.token }

// Valid reports whether the scope actually carries a token.
func (s Scope) Valid() bool { return s.token != "" }
