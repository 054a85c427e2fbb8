// Package space models the remote hosting platform's repository-like
// "spaces" and the client used to read and write their files.
//
// The platform API itself is an external collaborator; this package pins
// down the boundary: a Target identifies one space, Client is the minimal
// file-level interface the deployment engine needs, and the error taxonomy
// distinguishes the three failures callers react to differently
// (permission-denied, not-found, transient).
package space

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrPermission marks authorization failures. Never retried: retrying
	// cannot fix a missing write scope.
	ErrPermission = errors.New("permission denied (check that the token has write access to the space)")

	// ErrNotFound marks a missing space or file.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTarget marks a malformed owner/name identifier.
	ErrInvalidTarget = errors.New("invalid space identifier")
)

// Target is the identity of one remote space: owner/name uniquely
// addresses one repository-like unit.
type Target struct {
	Owner string
	Name  string
}

// ParseTarget parses an "owner/name" identifier.
func ParseTarget(id string) (Target, error) {
	parts := strings.Split(strings.TrimSpace(id), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, id)
	}
	return Target{Owner: parts[0], Name: parts[1]}, nil
}

// ID returns the canonical "owner/name" form.
func (t Target) ID() string {
	return t.Owner + "/" + t.Name
}

// IsZero reports whether the target is unset.
func (t Target) IsZero() bool {
	return t.Owner == "" && t.Name == ""
}

// Slugify maps free text onto the space-name alphabet: lowercase letters,
// digits and hyphens, with no leading, trailing or doubled hyphens.
func Slugify(text string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// MintName derives a fresh space name from the request prompt: a slug of
// the leading words plus a random hex suffix for uniqueness.
func MintName(prompt string) string {
	slug := Slugify(prompt)
	if len(slug) > 32 {
		slug = strings.TrimRight(slug[:32], "-")
	}
	if slug == "" {
		slug = "space"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return slug + "-" + suffix
}

// File is one uploaded file: a forward-slash relative path plus content.
type File struct {
	Path    string
	Content string
}

// Client is the file-level interface to the remote store. Implementations
// must translate platform errors into the package taxonomy so callers can
// branch with errors.Is.
type Client interface {
	// ListFiles returns the relative paths stored under target.
	ListFiles(ctx context.Context, target Target) ([]string, error)

	// FetchFile downloads one file's content.
	FetchFile(ctx context.Context, target Target, path string) (string, error)

	// UploadFile creates or overwrites one file.
	UploadFile(ctx context.Context, target Target, file File) error

	// Create provisions a new space of the given kind (the platform's
	// runtime template, e.g. "static" or "gradio").
	Create(ctx context.Context, target Target, kind string) error
}
