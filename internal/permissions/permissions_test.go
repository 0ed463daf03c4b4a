package permissions

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrvaldes/biblioteca/internal/entities"
)

type stubDirectory struct {
	librarians map[string]bool
	err        error
	lookups    int
}

func (s *stubDirectory) IsLibrarianEmail(email string) (bool, error) {
	s.lookups++
	if s.err != nil {
		return false, s.err
	}
	return s.librarians[email], nil
}

func newEvaluator(librarianEmails ...string) (*Evaluator, *stubDirectory) {
	directory := &stubDirectory{librarians: map[string]bool{}}
	for _, email := range librarianEmails {
		directory.librarians[email] = true
	}
	return NewEvaluator(directory), directory
}

var allMethods = []string{
	http.MethodGet, http.MethodHead, http.MethodOptions,
	http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

var writeMethods = []string{
	http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete,
}

func TestIsSafeMethod(t *testing.T) {
	assert.True(t, IsSafeMethod(http.MethodGet))
	assert.True(t, IsSafeMethod(http.MethodHead))
	assert.True(t, IsSafeMethod(http.MethodOptions))
	for _, method := range writeMethods {
		assert.False(t, IsSafeMethod(method), method)
	}
}

func TestOpenReadPrivilegedWrite(t *testing.T) {
	t.Run("reads are open to everyone", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		principals := []Principal{
			Anonymous(),
			Authenticated("user@example.com"),
			Authenticated("admin@example.com"),
		}
		for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
			for _, p := range principals {
				allowed, err := evaluator.OpenReadPrivilegedWrite(method, p)
				require.NoError(t, err)
				assert.True(t, allowed, method)
			}
		}
	})

	t.Run("writes require an authenticated librarian", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		for _, method := range writeMethods {
			allowed, err := evaluator.OpenReadPrivilegedWrite(method, Authenticated("admin@example.com"))
			require.NoError(t, err)
			assert.True(t, allowed, method)

			allowed, err = evaluator.OpenReadPrivilegedWrite(method, Authenticated("user@example.com"))
			require.NoError(t, err)
			assert.False(t, allowed, method)

			allowed, err = evaluator.OpenReadPrivilegedWrite(method, Anonymous())
			require.NoError(t, err)
			assert.False(t, allowed, method)
		}
	})

	t.Run("anonymous writes never hit the directory", func(t *testing.T) {
		evaluator, directory := newEvaluator()
		_, err := evaluator.OpenReadPrivilegedWrite(http.MethodPost, Anonymous())
		require.NoError(t, err)
		assert.Zero(t, directory.lookups)
	})

	t.Run("lookup errors deny", func(t *testing.T) {
		directory := &stubDirectory{err: errors.New("store unavailable")}
		evaluator := NewEvaluator(directory)
		allowed, err := evaluator.OpenReadPrivilegedWrite(http.MethodPost, Authenticated("admin@example.com"))
		assert.Error(t, err)
		assert.False(t, allowed)
	})
}

func TestPrivilegedOnly(t *testing.T) {
	evaluator, _ := newEvaluator("admin@example.com")

	t.Run("librarian allowed for any method", func(t *testing.T) {
		for _, method := range allMethods {
			_ = method // same check regardless of method
			allowed, err := evaluator.PrivilegedOnly(Authenticated("admin@example.com"))
			require.NoError(t, err)
			assert.True(t, allowed)
		}
	})

	t.Run("regular user denied even for reads", func(t *testing.T) {
		allowed, err := evaluator.PrivilegedOnly(Authenticated("user@example.com"))
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("anonymous denied", func(t *testing.T) {
		allowed, err := evaluator.PrivilegedOnly(Anonymous())
		require.NoError(t, err)
		assert.False(t, allowed)
	})
}

func TestOwnerOrPrivileged(t *testing.T) {
	owner := entities.User{ID: 1, Username: "reader", Email: "reader@example.com"}
	loan := entities.Loan{ID: 7, UserID: owner.ID, User: owner, IsActive: true}

	t.Run("reads are open", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodGet, Anonymous(), loan)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("librarian may write", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodDelete, Authenticated("admin@example.com"), loan)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("loan owner resolves through the borrower", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodPost, Authenticated("reader@example.com"), loan)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("other users denied", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodPost, Authenticated("stranger@example.com"), loan)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("anonymous denied for writes", func(t *testing.T) {
		evaluator, _ := newEvaluator()
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodPut, Anonymous(), loan)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("target without an owner only admits librarians", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		orphan := entities.Loan{ID: 8} // borrower not loaded

		allowed, err := evaluator.OwnerOrPrivileged(http.MethodPost, Authenticated("reader@example.com"), orphan)
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = evaluator.OwnerOrPrivileged(http.MethodPost, Authenticated("admin@example.com"), orphan)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("user edits their own record", func(t *testing.T) {
		evaluator, _ := newEvaluator("admin@example.com")
		allowed, err := evaluator.OwnerOrPrivileged(http.MethodPut, Authenticated("reader@example.com"), owner)
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
