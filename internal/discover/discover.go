// Package discover scans a folder for correspondents that no filter rule
// files yet, and proposes target folders for them.
package discover

import (
	"context"
	"regexp"
	"strings"

	"github.com/mhoran/filtersync/internal/folder"
	"github.com/mhoran/filtersync/internal/mailpath"
	"github.com/mhoran/filtersync/internal/rules"
)

// Sender is one proposed correspondent: the address found in a folder and
// the reverse-domain folder path mail from it would be filed into.
type Sender struct {
	Email    string `json:"email"`
	Path     string `json:"path"`
	Selected bool   `json:"selected"`
}

var bracketAddr = regexp.MustCompile(`<([^<>]+)>`)

// ExtractAddress pulls a bare address out of an author header value,
// preferring the angle-bracket form ("Alice <alice@example.com>") and
// falling back to the whole field. Returns false unless the result has
// exactly one "@".
func ExtractAddress(author string) (string, bool) {
	s := author
	if m := bracketAddr.FindStringSubmatch(author); m != nil {
		s = m[1]
	}
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Count(s, "@") != 1 {
		return "", false
	}
	return s, true
}

// Senders returns the unique sender addresses of the most recent messages
// in a folder, first-seen order, excluding the account's own identities.
func Senders(ctx context.Context, store folder.Store, folderID string, limit int, selfIdentities []string) ([]string, error) {
	msgs, err := store.Messages(ctx, folderID, limit)
	if err != nil {
		return nil, err
	}

	self := make(map[string]bool, len(selfIdentities))
	for _, id := range selfIdentities {
		self[strings.ToLower(strings.TrimSpace(id))] = true
	}

	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		addr, ok := ExtractAddress(m.Author)
		if !ok || self[addr] || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out, nil
}

// Propose pairs each address with its target path under root. Addresses
// that cannot be turned into a reverse-domain path are dropped.
func Propose(emails []string, root string) []Sender {
	var out []Sender
	for _, e := range emails {
		p, ok := mailpath.EmailToPath(e)
		if !ok {
			continue
		}
		if root != "" {
			p = root + "/" + p
		}
		out = append(out, Sender{Email: e, Path: p, Selected: true})
	}
	return out
}

// InferRoot guesses the archive root from existing rules: whenever a
// rule's path ends with the reverse-domain suffix of one of its own
// trigger emails, the remainder is a root candidate. The most frequent
// candidate wins; ties go to the first seen. Returns false when no rule
// path matches its email's expected suffix.
func InferRoot(rs []rules.Rule) (string, bool) {
	counts := make(map[string]int)
	var order []string
	for _, r := range rs {
		for _, e := range r.Emails {
			suffix, ok := mailpath.EmailToPath(e)
			if !ok {
				continue
			}
			lp := strings.ToLower(r.Path)
			ls := strings.ToLower(suffix)
			if !strings.HasSuffix(lp, ls) {
				continue
			}
			root := strings.TrimRight(r.Path[:len(r.Path)-len(suffix)], "/")
			if counts[root] == 0 {
				order = append(order, root)
			}
			counts[root]++
		}
	}
	if len(order) == 0 {
		return "", false
	}
	best := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best, true
}
