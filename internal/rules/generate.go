package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mhoran/filtersync/internal/mailpath"
)

// GenerateBlock renders a complete rule block that files mail from email
// into the folder at path. Key order is fixed (name, enabled, type, action,
// actionValue, condition): the format looks like key=value but some readers
// are positional.
func GenerateBlock(baseURI, email, path string, mask int) string {
	if mask == 0 {
		mask = DefaultMask
	}
	var b strings.Builder
	fmt.Fprintf(&b, "name=\"%s\"\n", email)
	b.WriteString("enabled=\"yes\"\n")
	fmt.Fprintf(&b, "type=\"%d\"\n", mask)
	b.WriteString("action=\"Move to folder\"\n")
	fmt.Fprintf(&b, "actionValue=\"%s\"\n", mailpath.PathToURI(baseURI, path))
	fmt.Fprintf(&b, "condition=\"AND (from,contains,%s)\"\n", email)
	return b.String()
}

// SortRaw reorders the rule blocks of a document by their target folder
// path, case-insensitive. Header text before the first rule is kept
// verbatim, and blocks without a resolvable path sort last. Blocks carry
// their own trailing newlines, so the result is header plus blocks joined
// with nothing in between.
func SortRaw(text string) string {
	header, blocks := SplitBlocks(text)
	if len(blocks) == 0 {
		return text
	}
	keys := make([]string, len(blocks))
	for i, block := range blocks {
		if p, ok := ExtractPath(block); ok {
			keys[i] = strings.ToLower(p)
		} else {
			keys[i] = "zzz"
		}
	}
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})
	var b strings.Builder
	b.WriteString(header)
	for _, i := range order {
		b.WriteString(blocks[i])
	}
	return b.String()
}

// UpdateTypes rewrites every rule's type field to mask, across the whole
// document regardless of block boundaries. A zero mask is replaced with
// DefaultMask.
func UpdateTypes(text string, mask int) string {
	if mask == 0 {
		mask = DefaultMask
	}
	return typeValueRE.ReplaceAllString(text, fmt.Sprintf("type=\"%d\"", mask))
}
