package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("a,b\n1,2\n"), 0644))
	}
}

func TestFindCSVFiles(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		subdir   bool
		expected []string
	}{
		{
			name:     "only csv files sorted by name",
			files:    []string{"product_sales.csv", "campaign_performance.csv", "notes.txt"},
			expected: []string{"campaign_performance.csv", "product_sales.csv"},
		},
		{
			name:     "extension is case insensitive",
			files:    []string{"EXPORT.CSV", "data.csv"},
			expected: []string{"EXPORT.CSV", "data.csv"},
		},
		{
			name:     "subdirectories are ignored",
			files:    []string{"funnel_data.csv"},
			subdir:   true,
			expected: []string{"funnel_data.csv"},
		},
		{
			name:     "empty directory",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, tt.files...)
			if tt.subdir {
				sub := filepath.Join(dir, "archive.csv")
				require.NoError(t, os.Mkdir(sub, 0755))
				writeFiles(t, sub, "old.csv")
			}

			found, err := NewDiscovery(dir).FindCSVFiles("")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(dir, f.Name), f.Path)
				assert.Positive(t, f.Size)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindCSVFiles_RelativeAndMissing(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "data"), 0755))
	writeFiles(t, filepath.Join(base, "data"), "geographic_data.csv")

	found, err := NewDiscovery(base).FindCSVFiles("data")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "geographic_data.csv", found[0].Name)

	_, err = NewDiscovery(base).FindCSVFiles("absent")
	assert.Error(t, err)
}

func TestUnrecognized(t *testing.T) {
	found := []FileInfo{{Name: "campaign_performance.csv"}, {Name: "backup.csv"}, {Name: "funnel_data.csv"}}

	stray := Unrecognized(found, []string{"campaign_performance.csv", "funnel_data.csv"})

	require.Len(t, stray, 1)
	assert.Equal(t, "backup.csv", stray[0].Name)
	assert.Empty(t, Unrecognized(nil, []string{"x.csv"}))
}

func TestGetLatestFile(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Name: "a.csv", ModTime: now.Add(-2 * time.Hour)},
		{Name: "b.csv", ModTime: now},
		{Name: "c.csv", ModTime: now.Add(-time.Hour)},
	}

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "b.csv", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}
