package rule

import (
	"path/filepath"
	"strings"
)

// Module is the identity a selector decides on.
type Module struct {
	Path        string
	ContentType string
	URL         bool // referenced by URL (new URL("./x.js", import.meta.url)), not imported
}

type Selector func(Module) bool

var scriptExts = map[string]bool{
	".js": true, ".jsx": true, ".mjs": true, ".cjs": true,
	".ts": true, ".tsx": true, ".mts": true, ".cts": true,
}

var scriptContentTypes = map[string]bool{
	"text/javascript":        true,
	"application/javascript": true,
	"application/typescript": true,
	"text/jsx":               true,
}

// MatchJS matches modules carrying script, by content type first and by
// extension otherwise.
func MatchJS() Selector {
	return func(m Module) bool {
		if ct := strings.ToLower(strings.TrimSpace(m.ContentType)); ct != "" {
			if i := strings.IndexByte(ct, ';'); i >= 0 {
				ct = strings.TrimSpace(ct[:i])
			}
			return scriptContentTypes[ct]
		}
		return scriptExts[strings.ToLower(filepath.Ext(m.Path))]
	}
}

func MatchURL() Selector { return func(m Module) bool { return m.URL } }

// MatchJSNoURL is the selector for script modules that are imported, not
// referenced by URL.
func MatchJSNoURL() Selector { return All(MatchJS(), Not(MatchURL())) }

func All(ss ...Selector) Selector {
	return func(m Module) bool {
		for _, s := range ss {
			if !s(m) {
				return false
			}
		}
		return true
	}
}

func Any(ss ...Selector) Selector {
	return func(m Module) bool {
		for _, s := range ss {
			if s(m) {
				return true
			}
		}
		return false
	}
}

func Not(s Selector) Selector { return func(m Module) bool { return !s(m) } }

// PathPrefix matches modules under one of the given directories.
func PathPrefix(dirs ...string) Selector {
	return func(m Module) bool {
		for _, d := range dirs {
			rel, err := filepath.Rel(d, m.Path)
			if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
}
