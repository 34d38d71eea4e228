package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestIndex(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, DefaultImageDir, "radiopaedia_7.nii"))
	touch(t, filepath.Join(root, DefaultImageDir, "coronacases_1.nii"))
	touch(t, filepath.Join(root, DefaultImageDir, "image_only.nii"))
	touch(t, filepath.Join(root, DefaultMaskDir, "coronacases_1.nii"))
	touch(t, filepath.Join(root, DefaultMaskDir, "radiopaedia_7.nii"))
	touch(t, filepath.Join(root, DefaultMaskDir, "mask_only.nii"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, DefaultImageDir, "subdir"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, DefaultMaskDir, "subdir"), 0755))

	pairs, err := Index(root, DefaultImageDir, DefaultMaskDir)
	require.NoError(t, err)

	want := []Pair{
		{
			FileName:  "coronacases_1.nii",
			ImagePath: filepath.Join(root, DefaultImageDir, "coronacases_1.nii"),
			MaskPath:  filepath.Join(root, DefaultMaskDir, "coronacases_1.nii"),
		},
		{
			FileName:  "radiopaedia_7.nii",
			ImagePath: filepath.Join(root, DefaultImageDir, "radiopaedia_7.nii"),
			MaskPath:  filepath.Join(root, DefaultMaskDir, "radiopaedia_7.nii"),
		},
	}
	assert.Equal(t, want, pairs)
}

func TestIndexMissingDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, DefaultImageDir, "a.nii"))

	_, err := Index(root, DefaultImageDir, DefaultMaskDir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIndexEmpty(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "im"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "msk"), 0755))

	pairs, err := Index(root, "im", "msk")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}
