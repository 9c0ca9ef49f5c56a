package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStorage_Store(t *testing.T) {
	root := t.TempDir()
	fs, err := NewFS(root)
	require.NoError(t, err)

	ref, err := fs.Store(context.Background(), "receita.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	// имя непрозрачное, расширение исходного файла сохраняется
	assert.Equal(t, ".pdf", filepath.Ext(ref))
	assert.NotContains(t, ref, "receita")

	data, err := os.ReadFile(ref)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestFSStorage_UniqueNames(t *testing.T) {
	fs, err := NewFS(t.TempDir())
	require.NoError(t, err)

	a, err := fs.Store(context.Background(), "r.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := fs.Store(context.Background(), "r.pdf", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
