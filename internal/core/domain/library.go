package domain

import (
	"os"
	"path/filepath"
)

// On-disk names under the library root. This layout is the persistence
// contract: entries may be added in later versions, existing ones must
// not change meaning.
const (
	vaultDirName     = "vault"
	viewDirName      = "categorized"
	scratchDirName   = ".shelva-tmp"
	manifestFileName = "manifest.db"
	rulesFileName    = "rules.toml"
)

// Library locates everything under one operator-chosen root directory:
// the digest-addressed vault, the derived categorized view, the scratch
// area for in-flight copies, the manifest database and the rule set.
type Library struct {
	// Root is the absolute library root path.
	Root string
}

// NewLibrary creates a library layout for the given root.
func NewLibrary(root string) Library {
	return Library{Root: root}
}

// DefaultLibraryRoot returns the per-user default library location.
func DefaultLibraryRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Documents", "PDFLibrary"), nil
}

// VaultDir is the digest-addressed blob tree.
func (l Library) VaultDir() string {
	return filepath.Join(l.Root, vaultDirName)
}

// ViewDir is the derived categorized view root.
func (l Library) ViewDir() string {
	return filepath.Join(l.Root, viewDirName)
}

// ScratchDir holds in-flight copies before their atomic rename into the
// vault. It lives under the root so renames stay on one filesystem.
func (l Library) ScratchDir() string {
	return filepath.Join(l.Root, scratchDirName)
}

// ManifestPath is the SQLite manifest database file.
func (l Library) ManifestPath() string {
	return filepath.Join(l.Root, manifestFileName)
}

// RulesPath is the category rule set file.
func (l Library) RulesPath() string {
	return filepath.Join(l.Root, rulesFileName)
}

// VaultRelPath returns the root-relative canonical location for a
// digest: a two-level fan-out from the first four hex characters.
func (l Library) VaultRelPath(digest string) string {
	return filepath.Join(vaultDirName, digest[0:2], digest[2:4], digest+".pdf")
}

// VaultPath returns the absolute canonical location for a digest.
func (l Library) VaultPath(digest string) string {
	return filepath.Join(l.Root, l.VaultRelPath(digest))
}

// Initialized reports whether the root carries an initialized layout.
func (l Library) Initialized() bool {
	if _, err := os.Stat(l.RulesPath()); err != nil {
		return false
	}
	if _, err := os.Stat(l.VaultDir()); err != nil {
		return false
	}
	return true
}
