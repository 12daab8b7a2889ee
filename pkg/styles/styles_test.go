// TEST TYPE: Unit Tests
// DEPENDENCIES: None
// PURPOSE: Test loading of the style registry

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedStylesLoad(t *testing.T) {
	require.NoError(t, Load(embeddedStyles))

	for _, name := range []string{"Error", "Warning", "Success", "Header", "Path", "Muted", "Digest"} {
		_, ok := registry[name]
		assert.True(t, ok, "missing style %s", name)
	}
	assert.True(t, Get("Error").GetBold())
	assert.True(t, Get("Header").GetUnderline())
}

func TestLoadCustomStyles(t *testing.T) {
	t.Cleanup(func() { _ = Load(embeddedStyles) })

	err := Load([]byte(`
colors:
  accent: {light: "#000000", dark: "#FFFFFF"}
styles:
  Accent: {foreground: accent, italic: true}
`))
	require.NoError(t, err)

	assert.True(t, Get("Accent").GetItalic())
	assert.Equal(t, lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}, Get("Accent").GetForeground())
	assert.False(t, Get("Error").GetBold())
}

func TestLoadInvalid(t *testing.T) {
	t.Cleanup(func() { _ = Load(embeddedStyles) })
	assert.Error(t, Load([]byte("styles: [")))
}

func TestRenderUnknownStyle(t *testing.T) {
	assert.Equal(t, "plain", Render("DoesNotExist", "plain"))
}
