// file: internal/fileops/hash_test.go
// version: 2.0.0
// guid: 2b3c4d5e-6f7a-8b9c-0d1e-2f3a4b5c6d7e

package fileops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known hash for "Hello, World!"
const helloHash = "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"

func TestComputeFileHash(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("Hello, World!"), 0o644))

	hash, err := ComputeFileHash(testFile)
	require.NoError(t, err)
	assert.Equal(t, helloHash, hash)
	assert.Equal(t, helloHash, ComputeHash([]byte("Hello, World!")))

	_, err = ComputeFileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestVerifyFileIntegrity(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(testFile, []byte("Hello, World!"), 0o644))

	ok, err := VerifyFileIntegrity(testFile, helloHash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyFileIntegrity(testFile, ComputeHash([]byte("other")))
	require.NoError(t, err)
	assert.False(t, ok)
}
