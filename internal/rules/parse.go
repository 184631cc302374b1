// Package rules reads and writes the line-oriented key="value" filter rule
// format used by Thunderbird-family mail clients (msgFilterRules.dat).
package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mhoran/filtersync/internal/mailpath"
)

// Rule is the parsed form of one rule block. Only rules with a resolvable
// move-to-folder action are representable; blocks that delete or tag
// instead are dropped during parsing.
type Rule struct {
	Path     string   `json:"path"`
	Emails   []string `json:"emails"`
	URI      string   `json:"uri"`
	Enabled  bool     `json:"enabled"`
	TypeMask int      `json:"type_mask"`
}

const moveAction = `action="Move to folder"`

var (
	actionValueRE = regexp.MustCompile(`actionValue="([^"]*)"`)
	enabledRE     = regexp.MustCompile(`(?m)^enabled="yes"`)
	typeValueRE   = regexp.MustCompile(`(?m)^type="(\d+)"`)

	// One captured value per (from, contains|is, ...) clause. A block's
	// condition may hold several, joined by boolean operators.
	fromCondRE = regexp.MustCompile(`(?i)\(\s*from\s*,\s*(?:contains|is)\s*,\s*([^)]*)\)`)
)

// SplitBlocks splits raw rule-file text into its leading header and one
// chunk per rule. A rule starts at a line beginning with the name key and
// runs up to the next such line, so each block keeps the marker and its own
// trailing newlines.
func SplitBlocks(text string) (header string, blocks []string) {
	var starts []int
	for i := 0; i < len(text); {
		j := strings.Index(text[i:], `name=`)
		if j < 0 {
			break
		}
		j += i
		if j == 0 || text[j-1] == '\n' {
			starts = append(starts, j)
		}
		i = j + len(`name=`)
	}
	if len(starts) == 0 {
		return text, nil
	}
	header = text[:starts[0]]
	for k, s := range starts {
		end := len(text)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		blocks = append(blocks, text[s:end])
	}
	return header, blocks
}

// Parse extracts every move-to-folder rule from a rules document, in block
// order. Blocks without a resolvable target path are skipped, not errors.
func Parse(text string) []Rule {
	_, blocks := SplitBlocks(text)
	var out []Rule
	for _, block := range blocks {
		uri, ok := moveTarget(block)
		if !ok {
			continue
		}
		path, ok := mailpath.URIToPath(uri)
		if !ok {
			continue
		}
		r := Rule{
			Path:     path,
			URI:      uri,
			Enabled:  enabledRE.MatchString(block),
			TypeMask: blockType(block),
		}
		seen := make(map[string]bool)
		for _, m := range fromCondRE.FindAllStringSubmatch(block, -1) {
			email := normalizeConditionValue(m[1])
			if email == "" || !strings.Contains(email, "@") || seen[email] {
				continue
			}
			seen[email] = true
			r.Emails = append(r.Emails, email)
		}
		out = append(out, r)
	}
	return out
}

// ExtractPath resolves a single block's move target to a folder path.
func ExtractPath(block string) (string, bool) {
	uri, ok := moveTarget(block)
	if !ok {
		return "", false
	}
	return mailpath.URIToPath(uri)
}

// UniquePaths returns the target paths of rs deduplicated in first-seen
// order. Several rules commonly file into the same folder, and the
// reconciliation diff expects its input deduplicated.
func UniquePaths(rs []Rule) []string {
	seen := make(map[string]bool, len(rs))
	var out []string
	for _, r := range rs {
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r.Path)
	}
	return out
}

// moveTarget finds the move-to-folder action marker, then the nearest
// following actionValue. The two stages matter: a block holds unrelated
// key-value pairs in any order, and other actions carry actionValues too.
func moveTarget(block string) (string, bool) {
	i := strings.Index(block, moveAction)
	if i < 0 {
		return "", false
	}
	m := actionValueRE.FindStringSubmatch(block[i+len(moveAction):])
	if m == nil {
		return "", false
	}
	return m[1], true
}

func blockType(block string) int {
	m := typeValueRE.FindStringSubmatch(block)
	if m == nil {
		return DefaultMask
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return DefaultMask
	}
	return n
}

// normalizeConditionValue strips one surrounding quote pair, trims, and
// lower-cases a captured condition value.
func normalizeConditionValue(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			v = v[1 : len(v)-1]
		}
	}
	return strings.ToLower(strings.TrimSpace(v))
}
