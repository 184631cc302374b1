package folder

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// fakeStore implements Store in memory. Folder IDs are parent-ID/name
// chains rooted at "root".
type fakeStore struct {
	account  Account
	children map[string][]Node
	messages map[string][]Message

	// createErr forces CreateFolder for the given new folder ID to fail.
	createErr map[string]error
	// existsOnServer simulates a folder present on the server but absent
	// from the walked snapshot (e.g. created by another client mid-batch).
	existsOnServer map[string]bool
	// listErr forces SubFolders for the given folder ID to fail.
	listErr map[string]error

	createdOrder []string
}

func newFakeStore() *fakeStore {
	root := Node{ID: "root", Name: "Root", Path: "/"}
	return &fakeStore{
		account: Account{
			ID:     "acct1",
			Name:   "bob@example.com",
			Emails: []string{"bob@example.com"},
			Roots:  []Node{root},
		},
		children:       make(map[string][]Node),
		messages:       make(map[string][]Message),
		createErr:      make(map[string]error),
		existsOnServer: make(map[string]bool),
		listErr:        make(map[string]error),
	}
}

// seed adds a folder chain under root without going through CreateFolder.
func (s *fakeStore) seed(path string) {
	parent := "root"
	for _, seg := range strings.Split(path, "/") {
		id := parent + "/" + seg
		found := false
		for _, c := range s.children[parent] {
			if c.ID == id {
				found = true
				break
			}
		}
		if !found {
			s.children[parent] = append(s.children[parent], Node{ID: id, Name: seg})
		}
		parent = id
	}
}

func (s *fakeStore) Accounts(ctx context.Context) ([]Account, error) {
	return []Account{s.account}, nil
}

func (s *fakeStore) Account(ctx context.Context, id string) (*Account, error) {
	if id == s.account.ID || id == "" {
		a := s.account
		return &a, nil
	}
	return nil, nil
}

func (s *fakeStore) SubFolders(ctx context.Context, folderID string) ([]Node, error) {
	if err := s.listErr[folderID]; err != nil {
		return nil, err
	}
	return s.children[folderID], nil
}

func (s *fakeStore) CreateFolder(ctx context.Context, parentID, name string) (Node, error) {
	id := parentID + "/" + name
	if err := s.createErr[id]; err != nil {
		return Node{}, err
	}
	if s.existsOnServer[id] {
		return Node{ID: id, Name: name}, ErrExists
	}
	for _, c := range s.children[parentID] {
		if c.Name == name {
			return Node{ID: id, Name: name}, ErrExists
		}
	}
	n := Node{ID: id, Name: name}
	s.children[parentID] = append(s.children[parentID], n)
	s.createdOrder = append(s.createdOrder, strings.TrimPrefix(id, "root/"))
	return n, nil
}

func (s *fakeStore) Messages(ctx context.Context, folderID string, limit int) ([]Message, error) {
	msgs := s.messages[folderID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return msgs, nil
}

func TestWalk(t *testing.T) {
	s := newFakeStore()
	s.seed("Archive/com/example")
	s.seed("Archive/org")
	s.seed("Drafts")

	nodes := Walk(context.Background(), s, s.account.Roots)

	var paths []string
	for _, n := range nodes {
		paths = append(paths, n.CleanPath)
	}
	// Depth-first, sibling order preserved; the root itself is included
	// with an empty clean path.
	want := []string{"", "Archive", "Archive/com", "Archive/com/example", "Archive/org", "Drafts"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Walk paths = %v, want %v", paths, want)
	}

	for _, n := range nodes {
		if n.CleanPath == "" {
			continue
		}
		wantDepth := strings.Count(n.CleanPath, "/") + 1
		if n.Depth != wantDepth {
			t.Errorf("node %q depth = %d, want %d", n.CleanPath, n.Depth, wantDepth)
		}
		if n.Path != "/"+n.CleanPath {
			t.Errorf("node %q path = %q", n.CleanPath, n.Path)
		}
	}
}

func TestWalkPermissionErrorMeansLeaf(t *testing.T) {
	s := newFakeStore()
	s.seed("Shared/team")
	s.seed("Mine")
	s.listErr["root/Shared"] = errors.New("permission denied")

	nodes := Walk(context.Background(), s, s.account.Roots)

	var paths []string
	for _, n := range nodes {
		paths = append(paths, n.CleanPath)
	}
	// Shared is still counted, its subtree is not, and the walk continues.
	want := []string{"", "Shared", "Mine"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Walk paths = %v, want %v", paths, want)
	}
}

func TestDiff(t *testing.T) {
	existing := []Node{
		{CleanPath: "Archive"},
		{CleanPath: "Archive/com"},
		{CleanPath: "Drafts"},
	}

	t.Run("all present", func(t *testing.T) {
		got := Diff([]string{"Archive", "Archive/com"}, existing, false)
		if len(got) != 0 {
			t.Errorf("Diff = %v, want none", got)
		}
	})

	t.Run("missing reported in input order", func(t *testing.T) {
		got := Diff([]string{"Zeta", "Archive", "Alpha"}, existing, false)
		want := []string{"Zeta", "Alpha"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Diff = %v, want %v", got, want)
		}
	})

	t.Run("case difference without merge", func(t *testing.T) {
		got := Diff([]string{"archive"}, existing, false)
		if !reflect.DeepEqual(got, []string{"archive"}) {
			t.Errorf("Diff = %v, want [archive]", got)
		}
	})

	t.Run("case difference with merge", func(t *testing.T) {
		got := Diff([]string{"archive", "ARCHIVE/COM", "New"}, existing, true)
		if !reflect.DeepEqual(got, []string{"New"}) {
			t.Errorf("Diff = %v, want [New]", got)
		}
	})
}

func TestCreateAllEmptyTree(t *testing.T) {
	s := newFakeStore()
	res := CreateAll(context.Background(), s, &s.account, []string{"A/B/C", "A/B", "X"}, nil)

	if len(res.Failed) != 0 {
		t.Fatalf("Failed = %v, want none", res.Failed)
	}
	// Every folder exists afterwards.
	ix := NewIndex(Walk(context.Background(), s, s.account.Roots))
	for _, p := range []string{"A", "A/B", "A/B/C", "X"} {
		if _, ok := ix.Lookup(p); !ok {
			t.Errorf("folder %q missing after batch", p)
		}
	}
	// Parents created before children.
	pos := make(map[string]int)
	for i, p := range s.createdOrder {
		pos[p] = i
	}
	if !(pos["A"] < pos["A/B"] && pos["A/B"] < pos["A/B/C"]) {
		t.Errorf("creation order wrong: %v", s.createdOrder)
	}
}

func TestCreateAllIdempotentRerun(t *testing.T) {
	s := newFakeStore()
	s.seed("A/B")

	res := CreateAll(context.Background(), s, &s.account, []string{"A/B/C", "A/B"}, nil)

	if !reflect.DeepEqual(res.Created, []string{"A/B/C"}) {
		t.Errorf("Created = %v, want [A/B/C]", res.Created)
	}
	if !reflect.DeepEqual(res.Existing, []string{"A/B"}) {
		t.Errorf("Existing = %v, want [A/B]", res.Existing)
	}
	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v, want none", res.Failed)
	}
	if !reflect.DeepEqual(s.createdOrder, []string{"A/B/C"}) {
		t.Errorf("createdOrder = %v, want only A/B/C", s.createdOrder)
	}
}

func TestCreateAllAlreadyExistsIsSuccess(t *testing.T) {
	// The folder is on the server but absent from the walked snapshot, so
	// the store answers the create with ErrExists.
	s := newFakeStore()
	s.existsOnServer["root/X"] = true

	res := CreateAll(context.Background(), s, &s.account, []string{"X"}, nil)

	if len(res.Failed) != 0 {
		t.Fatalf("Failed = %v, want none", res.Failed)
	}
	if !reflect.DeepEqual(res.Existing, []string{"X"}) {
		t.Errorf("Existing = %v, want [X]", res.Existing)
	}
}

func TestCreateAllFailureDoesNotAbortBatch(t *testing.T) {
	s := newFakeStore()
	s.createErr["root/A"] = errors.New("NO permission denied")

	res := CreateAll(context.Background(), s, &s.account, []string{"A/B", "X"}, nil)

	if !reflect.DeepEqual(res.Created, []string{"X"}) {
		t.Errorf("Created = %v, want [X]", res.Created)
	}
	if len(res.Failed) != 1 || res.Failed[0].Path != "A/B" {
		t.Fatalf("Failed = %v, want one entry for A/B", res.Failed)
	}
	if !strings.Contains(res.Failed[0].Err, "permission denied") {
		t.Errorf("Failed[0].Err = %q, want the triggering error", res.Failed[0].Err)
	}
}

func TestCreateAllProgressEvents(t *testing.T) {
	s := newFakeStore()
	var events []Event
	CreateAll(context.Background(), s, &s.account, []string{"A/B", "X"}, func(ev Event) {
		events = append(events, ev)
	})

	// One progress + one folderComplete per top-level path (not per
	// segment), then a final complete.
	var types []EventType
	for _, ev := range events {
		types = append(types, ev.Type)
	}
	want := []EventType{EventProgress, EventFolderComplete, EventProgress, EventFolderComplete, EventComplete}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}

	// Depth sort puts X first.
	if events[0].Path != "X" || events[0].Current != 1 || events[0].Total != 2 {
		t.Errorf("first progress = %+v", events[0])
	}
	if events[2].Path != "A/B" || events[2].Current != 2 {
		t.Errorf("second progress = %+v", events[2])
	}
	if events[4].Results == nil || len(events[4].Results.Created) != 2 {
		t.Errorf("complete event results = %+v", events[4].Results)
	}
}

func TestCreateAllCancellation(t *testing.T) {
	s := newFakeStore()
	ctx, cancel := context.WithCancel(context.Background())

	res := CreateAll(ctx, s, &s.account, []string{"A", "B", "C"}, func(ev Event) {
		if ev.Type == EventFolderComplete && ev.Path == "A" {
			cancel()
		}
	})

	if !reflect.DeepEqual(res.Created, []string{"A"}) {
		t.Errorf("Created = %v, want [A]", res.Created)
	}
	if len(res.Failed) != 0 {
		t.Errorf("Failed = %v, want none", res.Failed)
	}
	// Paths not started are neither created nor failed.
	if !reflect.DeepEqual(res.Skipped, []string{"B", "C"}) {
		t.Errorf("Skipped = %v, want [B C]", res.Skipped)
	}
}

func TestCreateAllSameDepthKeepsInputOrder(t *testing.T) {
	s := newFakeStore()
	CreateAll(context.Background(), s, &s.account, []string{"Zeta", "Alpha", "Mid"}, nil)
	if !reflect.DeepEqual(s.createdOrder, []string{"Zeta", "Alpha", "Mid"}) {
		t.Errorf("createdOrder = %v, want input order preserved", s.createdOrder)
	}
}

func TestCreationRootPrefersInbox(t *testing.T) {
	acct := &Account{Roots: []Node{
		{ID: "r1", Name: "Local"},
		{ID: "r2", Name: "INBOX", Attrs: []string{`\Inbox`}},
	}}
	root, ok := creationRoot(acct)
	if !ok || root.ID != "r2" {
		t.Errorf("creationRoot = %+v, %v, want the inbox-typed root", root, ok)
	}

	acct.Roots[1].Attrs = nil
	root, ok = creationRoot(acct)
	if !ok || root.ID != "r1" {
		t.Errorf("creationRoot = %+v, %v, want the first root", root, ok)
	}

	if _, ok := creationRoot(&Account{}); ok {
		t.Error("creationRoot should fail with no roots")
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/Archive/com", "Archive/com"},
		{"Archive", "Archive"},
		{"//x", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanPath(tt.in); got != tt.want {
			t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIndexCaseInsensitive(t *testing.T) {
	ix := NewIndex([]Node{{ID: "1", CleanPath: "Archive/Com"}})
	if _, ok := ix.Lookup("archive/com"); !ok {
		t.Error("Lookup should be case-insensitive")
	}
	ix.Add(Node{ID: "2", CleanPath: "New/Folder"})
	if n, ok := ix.Lookup("NEW/FOLDER"); !ok || n.ID != "2" {
		t.Errorf("Lookup after Add = %+v, %v", n, ok)
	}
}

func ExampleDiff() {
	existing := []Node{{CleanPath: "Archive"}}
	fmt.Println(Diff([]string{"Archive", "Archive/com"}, existing, false))
	// Output: [Archive/com]
}
