// Package policy implements the path allow/deny filter consulted at every
// file-read boundary and directory-traversal endpoint: extensions, size,
// and root containment.
package policy

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides whether a path may be read or listed.
type Filter struct {
	allowedRoots   []string
	denyExtensions []string
	denyGlobs      []string
	maxFileSize    int64
}

// New builds a Filter. allowedRoots should already be absolute/canonical;
// New canonicalizes them defensively anyway. denyExtensions and denyGlobs
// are used as given.
func New(allowedRoots []string, denyExtensions, denyGlobs []string, maxFileSize int64) *Filter {
	canon := make([]string, 0, len(allowedRoots))
	for _, r := range allowedRoots {
		if abs, err := filepath.Abs(r); err == nil {
			if resolved, err := filepath.EvalSymlinks(abs); err == nil {
				canon = append(canon, resolved)
				continue
			}
			canon = append(canon, filepath.Clean(abs))
		}
	}
	return &Filter{
		allowedRoots:   canon,
		denyExtensions: denyExtensions,
		denyGlobs:      denyGlobs,
		maxFileSize:    maxFileSize,
	}
}

// Decision describes why a path was allowed or denied.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// CheckPath applies the extension/root rules without touching the
// filesystem; used by directory-traversal listing where a stat is wasteful
// for entries that will be filtered out by name alone.
func (f *Filter) CheckPath(absPath string) Decision {
	if !f.containedInAnyRoot(absPath) {
		return deny("outside allowed roots")
	}
	base := filepath.Base(absPath)
	lower := strings.ToLower(base)
	for _, ext := range f.denyExtensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return deny("reserved extension " + ext)
		}
	}
	for _, g := range f.denyGlobs {
		if ok, _ := doublestar.PathMatch(g, absPath); ok {
			return deny("matched deny glob " + g)
		}
		if ok, _ := doublestar.PathMatch(g, base); ok {
			return deny("matched deny glob " + g)
		}
	}
	return allow()
}

// CheckRead applies CheckPath plus a size check that requires a stat, used
// at actual file-read boundaries (resources/read, indexer, getFile).
// A missing file is reported as notFound=true rather than denied, per
// spec.md §4.1 ("missing files are treated as ... 'not found' at read
// time").
func (f *Filter) CheckRead(absPath string) (decision Decision, notFound bool) {
	if d := f.CheckPath(absPath); !d.Allowed {
		return d, false
	}
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return Decision{}, true
		}
		return deny(err.Error()), false
	}
	if info.IsDir() {
		return deny("is a directory"), false
	}
	if info.Size() > f.maxFileSize {
		return deny("exceeds max file size"), false
	}
	return allow(), false
}

// CheckList is CheckPath narrowed for list-time use: missing files are
// denied (not an error), per spec.md §4.1.
func (f *Filter) CheckList(absPath string) Decision {
	if _, err := os.Stat(absPath); err != nil {
		return deny("not found")
	}
	return f.CheckPath(absPath)
}

func (f *Filter) containedInAnyRoot(absPath string) bool {
	clean := filepath.Clean(absPath)
	for _, root := range f.allowedRoots {
		if contains(root, clean) {
			return true
		}
	}
	return false
}

func contains(parent, child string) bool {
	if parent == child {
		return true
	}
	sep := string(filepath.Separator)
	p := parent
	if !strings.HasSuffix(p, sep) {
		p += sep
	}
	return strings.HasPrefix(child, p)
}

// AllowedRoots returns the canonicalized allowed roots, used by
// resources/list and roots/list.
func (f *Filter) AllowedRoots() []string {
	out := make([]string, len(f.allowedRoots))
	copy(out, f.allowedRoots)
	return out
}
