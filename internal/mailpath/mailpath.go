// Package mailpath converts between folder-hierarchy URIs, slash-separated
// folder paths, and reverse-domain paths derived from email addresses.
package mailpath

import (
	"net/url"
	"regexp"
	"strings"
)

// SentinelBaseURI is returned by ExtractBaseURI when a rules document
// contains no move-to-folder action to take an authority from. It is only
// used as a prefix to append path segments to, so any syntactically valid
// hierarchy URI works.
const SentinelBaseURI = "imap://localhost"

var (
	// Folder URIs are written with one of two schemes depending on account
	// type. The authority may or may not embed a user identity.
	hierarchyURI = regexp.MustCompile(`^(?:imap|mailbox)://[^/]+/(.+)$`)

	moveTargetURI = regexp.MustCompile(`action="Move to folder"[\s\S]*?actionValue="((?:imap|mailbox)://[^"]+)"`)
	baseURIPrefix = regexp.MustCompile(`^(?:imap|mailbox)://[^/]+`)
)

// URIToPath extracts the folder path from a hierarchy URI, percent-decoded.
// The second return is false when the URI does not match either recognized
// scheme shape.
func URIToPath(uri string) (string, bool) {
	m := hierarchyURI.FindStringSubmatch(uri)
	if m == nil {
		return "", false
	}
	path, err := url.PathUnescape(m[1])
	if err != nil {
		return "", false
	}
	return path, true
}

// PathToURI appends path to baseURI, percent-encoding each segment
// independently so that spaces and unicode in folder names survive the
// round trip.
func PathToURI(baseURI, path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.TrimSuffix(baseURI, "/") + "/" + strings.Join(segments, "/")
}

// EmailToPath derives a reverse-domain folder path from an email address:
// bob@mail.example.co.uk becomes uk/co/example/mail/bob. The address is
// trimmed and lower-cased first. Returns false for anything without exactly
// one "@".
func EmailToPath(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.Count(email, "@") != 1 {
		return "", false
	}
	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	labels := strings.Split(domain, ".")
	for i, j := 0, len(labels)-1; i < j; i, j = i+1, j-1 {
		labels[i], labels[j] = labels[j], labels[i]
	}
	return strings.Join(labels, "/") + "/" + local, true
}

// ExtractBaseURI scans a rules document for the first move-to-folder target
// and returns its scheme://authority prefix. Falls back to SentinelBaseURI
// when the document has no move action.
func ExtractBaseURI(text string) string {
	m := moveTargetURI.FindStringSubmatch(text)
	if m == nil {
		return SentinelBaseURI
	}
	base := baseURIPrefix.FindString(m[1])
	if base == "" {
		return SentinelBaseURI
	}
	return base
}
