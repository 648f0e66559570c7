package filestore

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-app/internal/domain"
)

func TestSave_NamesAndCollisions(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), "backups"))
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local)

	first, err := s.Save(ctx, at, []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.Equal(t, "backup_20240309_140507.json", first)

	second, err := s.Save(ctx, at, []byte(`{"a":2}`))
	require.NoError(t, err)
	assert.Equal(t, "backup_20240309_140507_001.json", second)

	data, err := s.Read(ctx, first)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(s.Path(first)))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no deben quedar temporales")
}

func TestList_NewestFirst(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := New(dir)

	for _, at := range []time.Time{
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.Local),
		time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local),
		time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local),
	} {
		_, err := s.Save(ctx, at, []byte("{}"))
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, "backup_20240201_100000.json", files[0].Name)
	assert.Equal(t, "backup_20231231_235959.json", files[2].Name)
	assert.EqualValues(t, 2, files[0].Size)
}

func TestList_MissingDir(t *testing.T) {
	files, err := New(filepath.Join(t.TempDir(), "nada")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestReadDelete_Errors(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())

	_, err := s.Read(ctx, "backup_20240101_000000.json")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.Read(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, s.Delete(ctx, "backup_20240101_000000.json"), domain.ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "backup_x.json"), domain.ErrInvalidInput)
}

func TestValidName(t *testing.T) {
	assert.True(t, ValidName("backup_20240101_120000.json"))
	assert.True(t, ValidName("backup_20240101_120000_003.json"))
	assert.False(t, ValidName("backup_20240101_120000_3.json"))
	assert.False(t, ValidName("backup_2024_120000.json"))
	assert.False(t, ValidName("backup_20240101_120000.json.tmp"))
	assert.False(t, ValidName("sub/backup_20240101_120000.json"))
}

func TestList_CollisionSuffixesKeepCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := New(t.TempDir())
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)

	var created []string
	for i := 0; i < 12; i++ {
		name, err := s.Save(ctx, at, []byte("{}"))
		require.NoError(t, err)
		created = append(created, name)
	}
	assert.Equal(t, "backup_20240501_080000_010.json", created[10])

	files, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, files, len(created))
	for i, f := range files {
		assert.Equal(t, created[len(created)-1-i], f.Name)
	}
	assert.True(t, sort.StringsAreSorted(created), "los nombres se ordenan por creación")
}
