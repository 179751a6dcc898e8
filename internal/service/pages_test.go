package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPages_Defaults(t *testing.T) {
	pages, err := NewPages("")
	require.NoError(t, err)

	for _, name := range []string{"terms", "privacy", "contact", "about"} {
		page, err := pages.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, page.Name)
		assert.NotEmpty(t, page.Body)
	}
}

func TestNewPages_OverridesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.md"), []byte("  mail us  \n"), 0o600))

	pages, err := NewPages(dir)
	require.NoError(t, err)

	page, err := pages.Get("contact")
	require.NoError(t, err)
	assert.Equal(t, "Contact", page.Title)
	assert.Equal(t, "mail us", page.Body)

	about, err := pages.Get("about")
	require.NoError(t, err)
	assert.Equal(t, defaultPages["about"].Body, about.Body)
}
