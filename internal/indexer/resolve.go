package indexer

import (
	"path"
	"strings"
)

// resolveImport resolves a raw import/require source string, as written in
// fromFile, to an in-tree repo-relative path. Only relative specifiers
// ("./x", "../x") are ever in-tree; bare module specifiers ("react",
// "lodash") never resolve, per spec.md §4.4 step 3 ("resolved to in-tree
// files"). known holds every indexed file's repo-relative path.
func resolveImport(fromFile, source string, extensions []string, known map[string]bool) (string, bool) {
	if source == "" || !strings.HasPrefix(source, ".") {
		return "", false
	}

	dir := path.Dir(fromFile)
	joined := path.Clean(path.Join(dir, source))

	candidates := make([]string, 0, 1+2*len(extensions))
	candidates = append(candidates, joined)
	for _, ext := range extensions {
		candidates = append(candidates, joined+ext)
	}
	for _, ext := range extensions {
		candidates = append(candidates, path.Join(joined, "index"+ext))
	}

	for _, c := range candidates {
		if known[c] {
			return c, true
		}
	}
	return "", false
}
