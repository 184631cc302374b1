// Package folder models an account's folder hierarchy and reconciles it
// against the set of paths the filter rules require.
package folder

import (
	"context"
	"errors"
	"strings"
)

// ErrExists is the distinguishable "already exists" error from
// Store.CreateFolder. The creation batch treats it as success so that a
// partially completed batch can be retried.
var ErrExists = errors.New("folder already exists")

// Node is a transient snapshot of one folder. Path keeps the host's
// leading separator; CleanPath strips it. Depth counts levels below the
// account root.
type Node struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	CleanPath string   `json:"clean_path"`
	Depth     int      `json:"depth"`
	Attrs     []string `json:"attrs,omitempty"`
}

// Message carries the only message field this tool reads.
type Message struct {
	Author string
}

// Account is the host's view of one mail account. Roots are the top-level
// folders as the host presents them.
type Account struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Emails []string `json:"emails"`
	Roots  []Node   `json:"-"`
}

// Store is the mail-client capability everything runs against. The live
// implementation sits in internal/imap; tests substitute a fake. A missing
// account is a nil result, not an error, so callers can report "no data"
// instead of failing.
type Store interface {
	Accounts(ctx context.Context) ([]Account, error)
	Account(ctx context.Context, id string) (*Account, error)
	SubFolders(ctx context.Context, folderID string) ([]Node, error)
	CreateFolder(ctx context.Context, parentID, name string) (Node, error)
	Messages(ctx context.Context, folderID string, limit int) ([]Message, error)
}

// CleanPath strips leading separator characters from a folder path.
func CleanPath(p string) string {
	return strings.TrimLeft(p, "/")
}

// Index maps lower-cased clean paths to nodes for O(1) existence and
// parent lookups. Built fresh per operation, never persisted.
type Index map[string]Node

// NewIndex builds an index over a tree snapshot.
func NewIndex(nodes []Node) Index {
	ix := make(Index, len(nodes))
	for _, n := range nodes {
		ix[strings.ToLower(n.CleanPath)] = n
	}
	return ix
}

func (ix Index) Lookup(cleanPath string) (Node, bool) {
	n, ok := ix[strings.ToLower(cleanPath)]
	return n, ok
}

func (ix Index) Add(n Node) {
	ix[strings.ToLower(n.CleanPath)] = n
}

// Walk enumerates the hierarchy beneath roots into a flat, depth-first
// list, computing Path, CleanPath, and Depth relative to the roots. An
// explicit stack keeps pathological depths from hitting recursion limits.
// A subtree whose children cannot be listed (permissions, typically)
// counts as a leaf rather than an error.
func Walk(ctx context.Context, store Store, roots []Node) []Node {
	stack := make([]Node, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		r := roots[i]
		if r.Path == "" {
			r.Path = "/" + r.Name
		}
		r.CleanPath = CleanPath(r.Path)
		stack = append(stack, r)
	}

	var out []Node
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)

		children, err := store.SubFolders(ctx, n.ID)
		if err != nil {
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			c := children[i]
			c.Path = strings.TrimSuffix(n.Path, "/") + "/" + c.Name
			c.CleanPath = CleanPath(c.Path)
			c.Depth = n.Depth + 1
			stack = append(stack, c)
		}
	}
	return out
}

// Diff returns the required paths missing from existing, preserving input
// order. With mergeCase set, paths that differ from an existing folder only
// in case count as present. The caller deduplicates required first (see
// rules.UniquePaths); Diff does not.
func Diff(required []string, existing []Node, mergeCase bool) []string {
	exact := make(map[string]bool, len(existing))
	folded := make(map[string]bool, len(existing))
	for _, n := range existing {
		exact[n.CleanPath] = true
		folded[strings.ToLower(n.CleanPath)] = true
	}

	var missing []string
	for _, p := range required {
		if exact[p] {
			continue
		}
		if mergeCase && folded[strings.ToLower(p)] {
			continue
		}
		missing = append(missing, p)
	}
	return missing
}
