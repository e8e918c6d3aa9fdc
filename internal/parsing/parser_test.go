package parsing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderServiceSource = `
import { Item } from "./item";

export class OrderService {
  createOrder(items: string[]): Order {
    return build(items);
  }
}
`

func TestParseExtractsClassMethodAndImport(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	result := p.Parse(".ts", []byte(orderServiceSource))
	require.NotEmpty(t, result.Symbols)

	var foundMethod, foundClass bool
	for _, s := range result.Symbols {
		if s.Kind == KindMethod && s.Name == "OrderService.createOrder" {
			foundMethod = true
			assert.LessOrEqual(t, s.StartLine, s.EndLine)
		}
		if s.Kind == KindClass && s.Name == "OrderService" {
			foundClass = true
		}
	}
	assert.True(t, foundMethod, "expected qualified OrderService.createOrder method symbol")
	assert.True(t, foundClass)

	require.NotEmpty(t, result.Imports)
	assert.Equal(t, "./item", result.Imports[0].Source)
}

func TestParseUnknownExtensionReturnsEmpty(t *testing.T) {
	p, err := New()
	require.NoError(t, err)
	defer p.Close()

	result := p.Parse(".py", []byte("def f(): pass"))
	assert.Empty(t, result.Symbols)
	assert.Empty(t, result.Imports)
}
