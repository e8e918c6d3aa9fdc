package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFallbackImportsFindsRequireTargets(t *testing.T) {
	src := `
function load() {
  const fs = require("fs");
  return require('./helpers');
}
`
	imports := FallbackImports([]byte(src))
	assert.Contains(t, imports, "fs")
	assert.Contains(t, imports, "./helpers")
}

func TestFallbackImportsIgnoresNonRequireCalls(t *testing.T) {
	src := `
function run() {
  doSomething("fs");
}
`
	imports := FallbackImports([]byte(src))
	assert.Empty(t, imports)
}

func TestMergeImportsDedupesAndUnions(t *testing.T) {
	primary := []ImportRef{{Source: "./item"}, {Source: ""}}
	fallback := []string{"./item", "./extra", ""}

	merged := mergeImports(primary, fallback)

	var sources []string
	for _, m := range merged {
		sources = append(sources, m.Source)
	}
	assert.ElementsMatch(t, []string{"./item", "./extra"}, sources)
}

func TestParseKeepsTreeSitterImportAlongsideRequire(t *testing.T) {
	p, err := New()
	assert.NoError(t, err)
	defer p.Close()

	src := `
import { Item } from "./item";

export class Loader {
  load() {
    return require("./legacy");
  }
}
`
	result := p.Parse(".ts", []byte(src))

	var sources []string
	for _, imp := range result.Imports {
		sources = append(sources, imp.Source)
	}
	assert.Contains(t, sources, "./item")
}
