package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveImportRelativeSibling(t *testing.T) {
	known := map[string]bool{"orders/item.ts": true}
	target, ok := resolveImport("orders/order.service.ts", "./item", []string{".ts", ".tsx"}, known)
	assert.True(t, ok)
	assert.Equal(t, "orders/item.ts", target)
}

func TestResolveImportDirectoryIndex(t *testing.T) {
	known := map[string]bool{"lib/utils/index.ts": true}
	target, ok := resolveImport("app.ts", "./lib/utils", []string{".ts", ".tsx"}, known)
	assert.True(t, ok)
	assert.Equal(t, "lib/utils/index.ts", target)
}

func TestResolveImportBareSpecifierNeverResolves(t *testing.T) {
	known := map[string]bool{"react.ts": true}
	_, ok := resolveImport("app.ts", "react", []string{".ts"}, known)
	assert.False(t, ok)
}

func TestResolveImportUnknownTargetFails(t *testing.T) {
	known := map[string]bool{}
	_, ok := resolveImport("app.ts", "./missing", []string{".ts"}, known)
	assert.False(t, ok)
}
