// Package finger implements the request grammar and response formatting of
// the plan file service. It accepts both the standard finger protocol form
// ("[-l ] [user]@host") and the simplified bare form ("year/project"),
// unified into a single parser.
package finger

import (
	"strings"

	"github.com/planfiles/fingerd/internal/catalog"
)

// Kind identifies the operation a parsed request asks for.
type Kind int

const (
	// KindListAll lists every known project identifier.
	KindListAll Kind = iota
	// KindListAllDetailed lists projects with size and modification time.
	KindListAllDetailed
	// KindFetchOne returns the content of one project file.
	KindFetchOne
	// KindFetchOneDetailed returns content preceded by file metadata.
	KindFetchOneDetailed
	// KindInvalid is a malformed request; the response is usage text.
	KindInvalid
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindListAll:
		return "list"
	case KindListAllDetailed:
		return "list-detailed"
	case KindFetchOne:
		return "fetch"
	case KindFetchOneDetailed:
		return "fetch-detailed"
	case KindInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// Request is a parsed request line. Year and Project are set only for the
// fetch kinds; Reason is set only for KindInvalid.
type Request struct {
	Kind    Kind
	Year    string
	Project string
	Reason  string
}

// longPrefix marks a detailed (long format) request. Only this exact token
// is recognized, matching the standard finger -l flag.
const longPrefix = "-l "

// Parse decodes one request line (trailing CR/LF already stripped) into a
// Request.
//
// The standard grammar requires exactly one "@": the part before it is the
// selector, empty for a full listing or "year/project" for a single fetch.
// Lines without "@" use the simplified bare grammar, where an empty line
// lists all projects and anything else must be "year/project"; the bare
// grammar has no detailed variant, so a stripped -l prefix has no effect
// on it. A year must be all digits in either grammar.
func Parse(line string) Request {
	line = strings.TrimSpace(line)

	long := false
	if strings.HasPrefix(line, longPrefix) {
		long = true
		line = strings.TrimSpace(line[len(longPrefix):])
	}

	if strings.Contains(line, "@") {
		parts := strings.Split(line, "@")
		if len(parts) != 2 {
			return Request{Kind: KindInvalid, Reason: "expected a single @"}
		}
		return parseSelector(strings.TrimSpace(parts[0]), long)
	}

	// Bare form: no host part, no detailed variant.
	return parseSelector(line, false)
}

// parseSelector decodes the user field of the standard grammar: empty for a
// listing, "year/project" for a fetch.
func parseSelector(selector string, long bool) Request {
	if selector == "" {
		if long {
			return Request{Kind: KindListAllDetailed}
		}
		return Request{Kind: KindListAll}
	}

	year, project, found := strings.Cut(selector, "/")
	if !found {
		return Request{Kind: KindInvalid, Reason: "selector is not year/project"}
	}
	if !catalog.IsYear(year) {
		return Request{Kind: KindInvalid, Reason: "year is not numeric"}
	}
	if !projectWithinYear(project) {
		return Request{Kind: KindInvalid, Reason: "project escapes plan directory"}
	}

	kind := KindFetchOne
	if long {
		kind = KindFetchOneDetailed
	}
	return Request{Kind: kind, Year: year, Project: project}
}

// projectWithinYear reports whether the project field resolves beneath its
// year directory: a relative path with no ".." elements. The service is an
// open read-only facade over the plan directory, never the filesystem
// around it.
func projectWithinYear(p string) bool {
	if strings.HasPrefix(p, "/") {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
