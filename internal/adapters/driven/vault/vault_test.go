package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/shelva-cli/internal/core/domain"
)

func setupVault(t *testing.T) (*Vault, domain.Library) {
	t.Helper()
	lib := domain.NewLibrary(filepath.Join(t.TempDir(), "PDFLibrary"))
	require.NoError(t, os.MkdirAll(lib.Root, 0o755))
	return New(lib), lib
}

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestVault_Ingest_NewContent(t *testing.T) {
	v, lib := setupVault(t)
	srcDir := t.TempDir()
	content := "%PDF-1.4 invoice body"
	src := writeSource(t, srcDir, "invoice.pdf", content)

	res, err := v.Ingest(context.Background(), src)
	require.NoError(t, err)

	sum := sha256.Sum256([]byte(content))
	wantDigest := hex.EncodeToString(sum[:])
	assert.Equal(t, wantDigest, res.Digest)
	assert.Equal(t, lib.VaultRelPath(wantDigest), res.StoreRelPath)
	assert.Equal(t, int64(len(content)), res.ByteSize)
	assert.True(t, res.NewCopy)

	got, err := os.ReadFile(lib.VaultPath(wantDigest))
	require.NoError(t, err)
	assert.Equal(t, content, string(got), "vault copy is byte-identical")
}

func TestVault_Ingest_DeduplicatesIdenticalContent(t *testing.T) {
	v, lib := setupVault(t)
	srcDir := t.TempDir()
	content := "%PDF-1.4 shared body"
	first := writeSource(t, srcDir, "report.pdf", content)
	second := writeSource(t, srcDir, "report copy.pdf", content)

	res1, err := v.Ingest(context.Background(), first)
	require.NoError(t, err)
	require.True(t, res1.NewCopy)

	res2, err := v.Ingest(context.Background(), second)
	require.NoError(t, err)

	assert.False(t, res2.NewCopy, "identical bytes are stored once")
	assert.Equal(t, res1.Digest, res2.Digest)
	assert.Equal(t, res1.StoreRelPath, res2.StoreRelPath)

	entries := countFiles(t, lib.VaultDir())
	assert.Equal(t, 1, entries)
}

func TestVault_Ingest_LeavesNoScratchBehind(t *testing.T) {
	v, lib := setupVault(t)
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "invoice.pdf", "%PDF-1.4 body")

	_, err := v.Ingest(context.Background(), src)
	require.NoError(t, err)
	_, err = v.Ingest(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 0, countFiles(t, lib.ScratchDir()), "scratch files never accumulate")
}

func TestVault_Ingest_FanOutLayout(t *testing.T) {
	v, lib := setupVault(t)
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "invoice.pdf", "%PDF-1.4 fan out")

	res, err := v.Ingest(context.Background(), src)
	require.NoError(t, err)

	d := res.Digest
	want := filepath.Join("vault", d[0:2], d[2:4], d+".pdf")
	assert.Equal(t, want, res.StoreRelPath)
	assert.FileExists(t, filepath.Join(lib.Root, want))
}

func TestVault_Ingest_MissingSource(t *testing.T) {
	v, _ := setupVault(t)

	_, err := v.Ingest(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening source file")
}

func TestVault_Ingest_PreservesModTime(t *testing.T) {
	v, lib := setupVault(t)
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "invoice.pdf", "%PDF-1.4 mtime")

	past := time.Now().Add(-48 * time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(src, past, past))

	res, err := v.Ingest(context.Background(), src)
	require.NoError(t, err)

	info, err := os.Stat(lib.VaultPath(res.Digest))
	require.NoError(t, err)
	assert.WithinDuration(t, past, info.ModTime(), time.Second)
}

func TestVault_Ingest_CanceledContext(t *testing.T) {
	v, _ := setupVault(t)
	srcDir := t.TempDir()
	src := writeSource(t, srcDir, "invoice.pdf", "%PDF-1.4 body")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := v.Ingest(ctx, src)
	assert.ErrorIs(t, err, context.Canceled)
}

// countFiles counts regular files under root recursively.
func countFiles(t *testing.T, root string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}
