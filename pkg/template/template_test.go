package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_SimpleSubstitution(t *testing.T) {
	variables := map[string]any{
		"name": "Alice",
		"city": "Lima",
	}

	result := Resolve("Hello {name} from {city}", variables)
	assert.Equal(t, "Hello Alice from Lima", result)
}

func TestResolve_UnknownKeysLeftLiteral(t *testing.T) {
	variables := map[string]any{
		"name": "Alice",
	}

	result := Resolve("Hello {name}, your code is {code}", variables)
	assert.Equal(t, "Hello Alice, your code is {code}", result)
}

func TestResolve_NoPlaceholdersIsIdentity(t *testing.T) {
	inputs := []string{
		"plain text",
		"",
		"text with } stray { braces",
		"{not a key!}",
	}

	for _, input := range inputs {
		assert.Equal(t, input, Resolve(input, map[string]any{"name": "Alice"}))
	}
}

func TestResolve_NonStringValues(t *testing.T) {
	variables := map[string]any{
		"count":   float64(3), // JSON-decoded number
		"ratio":   2.5,
		"enabled": true,
		"null":    nil,
	}

	assert.Equal(t, "3 items", Resolve("{count} items", variables))
	assert.Equal(t, "ratio 2.5", Resolve("ratio {ratio}", variables))
	assert.Equal(t, "enabled=true", Resolve("enabled={enabled}", variables))
	assert.Equal(t, "value: ", Resolve("value: {null}", variables))
}

func TestResolve_RepeatedKey(t *testing.T) {
	result := Resolve("{name}, yes {name}", map[string]any{"name": "Bob"})
	assert.Equal(t, "Bob, yes Bob", result)
}

func TestResolve_NilVariables(t *testing.T) {
	assert.Equal(t, "Hello {name}", Resolve("Hello {name}", nil))
}

func TestResolve_Deterministic(t *testing.T) {
	variables := map[string]any{"a": "1", "b": "2"}

	first := Resolve("{a}-{b}-{c}", variables)
	for range 10 {
		assert.Equal(t, first, Resolve("{a}-{b}-{c}", variables))
	}
}

func TestPlaceholders(t *testing.T) {
	keys := Placeholders("Hi {name}, {name} from {city}")
	assert.Equal(t, []string{"name", "city"}, keys)

	assert.Empty(t, Placeholders("no keys here"))
}
