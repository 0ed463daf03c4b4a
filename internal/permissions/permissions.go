// Package permissions implements the three authorization rules of the
// library: open-read/privileged-write, privileged-only, and owner-or-
// privileged. The rules are pure decisions over (method, principal, target);
// the only external dependency is a Directory that answers whether an email
// belongs to a registered librarian.
package permissions

import (
	"net/http"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

// Directory answers the single question role resolution needs: is this email
// registered as a librarian? It is injected so the evaluator can be tested
// against a stub instead of a live store.
type Directory interface {
	IsLibrarianEmail(email string) (bool, error)
}

// Principal is the actor behind a request. An unauthenticated principal has
// Authenticated false and an empty email.
type Principal struct {
	Email         string
	Authenticated bool
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// Authenticated returns a principal identified by the given email.
func Authenticated(email string) Principal {
	return Principal{Email: email, Authenticated: true}
}

// IsSafeMethod reports whether the HTTP method has no mutating side effect.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Evaluator applies the permission rules.
type Evaluator struct {
	directory Directory
}

// NewEvaluator creates an evaluator backed by the given librarian directory.
func NewEvaluator(directory Directory) *Evaluator {
	return &Evaluator{directory: directory}
}

// isLibrarian resolves the principal's role. Unauthenticated principals are
// never librarians and never trigger a lookup.
func (e *Evaluator) isLibrarian(p Principal) (bool, error) {
	if !p.Authenticated || p.Email == "" {
		return false, nil
	}
	return e.directory.IsLibrarianEmail(p.Email)
}

// OpenReadPrivilegedWrite allows every read; writes require an authenticated
// librarian.
func (e *Evaluator) OpenReadPrivilegedWrite(method string, p Principal) (bool, error) {
	if IsSafeMethod(method) {
		return true, nil
	}
	return e.isLibrarian(p)
}

// PrivilegedOnly allows librarians and nobody else, regardless of method.
func (e *Evaluator) PrivilegedOnly(p Principal) (bool, error) {
	return e.isLibrarian(p)
}

// OwnerOrPrivileged is the object-level rule: reads are open, writes require
// the principal to be a librarian or the owner of the target. Ownership is an
// entity capability (entities.Ownable); a target that cannot name an owner
// only admits librarians.
func (e *Evaluator) OwnerOrPrivileged(method string, p Principal, target entities.Ownable) (bool, error) {
	if IsSafeMethod(method) {
		return true, nil
	}
	librarian, err := e.isLibrarian(p)
	if err != nil || librarian {
		return librarian, err
	}
	if !p.Authenticated {
		return false, nil
	}
	if owner, ok := target.OwnerEmail(); ok {
		return owner == p.Email, nil
	}
	return false, nil
}
