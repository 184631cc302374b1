package folder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EventType discriminates the progress events emitted by CreateAll.
type EventType string

const (
	EventProgress       EventType = "progress"
	EventFolderComplete EventType = "folderComplete"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Event is one progress message from a creation batch. Progress events
// fire once per top-level target path before it is attempted;
// folderComplete fires when its segments are done or one has failed.
type Event struct {
	Type    EventType `json:"type"`
	Current int       `json:"current,omitempty"`
	Total   int       `json:"total,omitempty"`
	Path    string    `json:"path,omitempty"`
	Err     string    `json:"error,omitempty"`
	Results *Result   `json:"results,omitempty"`
}

// ProgressFunc consumes creation-batch events. May be nil.
type ProgressFunc func(Event)

// PathError records one target path that could not be fully created.
type PathError struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Result is the outcome of a creation batch. Existing holds paths whose
// every segment was already present; Skipped holds paths not attempted
// because the batch was cancelled.
type Result struct {
	Created  []string    `json:"created"`
	Existing []string    `json:"existing,omitempty"`
	Failed   []PathError `json:"failed"`
	Skipped  []string    `json:"skipped,omitempty"`
}

// CreateAll creates every folder path in paths that is missing from the
// account's tree, shallower paths before deeper ones so parents exist
// before their children. The tree is snapshot once into an index at the
// start; nodes created during the batch are added to it so later paths can
// resolve freshly created ancestors. One path failing never aborts the
// batch, and "already exists" from the store counts as success, so a
// partially completed batch is safe to re-run. Cancellation is honored
// between top-level paths, never mid-path.
func CreateAll(ctx context.Context, store Store, acct *Account, paths []string, progress ProgressFunc) Result {
	if progress == nil {
		progress = func(Event) {}
	}

	sorted := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			sorted = append(sorted, p)
		}
	}
	// Depth ascending; ties keep input order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return pathDepth(sorted[i]) < pathDepth(sorted[j])
	})

	ix := NewIndex(Walk(ctx, store, acct.Roots))
	root, haveRoot := creationRoot(acct)

	var res Result
	total := len(sorted)
	for i, p := range sorted {
		if ctx.Err() != nil {
			res.Skipped = append(res.Skipped, sorted[i:]...)
			break
		}
		progress(Event{Type: EventProgress, Current: i + 1, Total: total, Path: p})

		created, err := createPath(ctx, store, ix, root, haveRoot, p)
		switch {
		case err != nil:
			res.Failed = append(res.Failed, PathError{Path: p, Err: err.Error()})
		case created:
			res.Created = append(res.Created, p)
		default:
			res.Existing = append(res.Existing, p)
		}
		progress(Event{Type: EventFolderComplete, Path: p})
	}

	progress(Event{Type: EventComplete, Results: &res})
	return res
}

// createPath walks the segments of one target path left to right, creating
// each missing prefix under its parent. Returns whether any segment was
// actually created. A missing parent is fatal for this path only: it means
// an earlier segment of this same path could not be created or indexed.
func createPath(ctx context.Context, store Store, ix Index, root Node, haveRoot bool, path string) (bool, error) {
	segments := strings.Split(path, "/")
	created := false
	for i, seg := range segments {
		prefix := strings.Join(segments[:i+1], "/")
		if _, ok := ix.Lookup(prefix); ok {
			continue
		}

		var parent Node
		if i == 0 {
			if !haveRoot {
				return created, errors.New("account has no root folder")
			}
			parent = root
		} else {
			parentPrefix := strings.Join(segments[:i], "/")
			p, ok := ix.Lookup(parentPrefix)
			if !ok {
				return created, fmt.Errorf("parent folder %q not found", parentPrefix)
			}
			parent = p
		}

		n, err := store.CreateFolder(ctx, parent.ID, seg)
		if err != nil && !errors.Is(err, ErrExists) {
			return created, err
		}
		if err == nil {
			created = true
		}
		if n.ID == "" {
			// Already-exists with no node to index. Deeper segments of this
			// path will fail their parent lookup; other paths are unaffected.
			continue
		}
		n.Name = seg
		n.Path = "/" + prefix
		n.CleanPath = prefix
		n.Depth = i
		ix.Add(n)
	}
	return created, nil
}

// creationRoot picks the parent for top-level segments: the first
// inbox-typed root if the host presents one, else the first root folder.
func creationRoot(acct *Account) (Node, bool) {
	for _, r := range acct.Roots {
		for _, a := range r.Attrs {
			if strings.EqualFold(a, `\Inbox`) {
				return r, true
			}
		}
	}
	if len(acct.Roots) > 0 {
		return acct.Roots[0], true
	}
	return Node{}, false
}

func pathDepth(p string) int {
	return strings.Count(p, "/") + 1
}
