package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Manager enforces the data directory guardrails for on-disk reference tables.
// It stores the canonical absolute root and validates that requested table
// files resolve inside it and carry a supported extension.
type Manager struct {
	root        string
	allowedExts map[string]struct{}
}

// ErrNotAllowed indicates the requested path resolves outside the data directory.
var ErrNotAllowed = errors.New("security: path not allowed")

// ErrUnsupportedExtension indicates the requested file extension is not supported.
var ErrUnsupportedExtension = errors.New("security: unsupported file extension")

// ErrNotFound indicates the requested file does not exist or is not accessible.
// It matches fs.ErrNotExist under errors.Is.
var ErrNotFound = fmt.Errorf("security: file not found: %w", fs.ErrNotExist)

// NewManager constructs a security manager rooted at dataDir. Extensions are
// case-insensitive with a leading dot and default to ".json".
// The root is canonicalized (absolute + EvalSymlinks) and must be a directory.
func NewManager(dataDir string, allowedExtensions []string) (*Manager, error) {
	if len(allowedExtensions) == 0 {
		allowedExtensions = []string{".json"}
	}

	exts := make(map[string]struct{}, len(allowedExtensions))
	for _, e := range allowedExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || !strings.HasPrefix(e, ".") {
			return nil, fmt.Errorf("security: invalid extension: %q", e)
		}
		exts[e] = struct{}{}
	}

	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return nil, errors.New("security: no data directory configured")
	}
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("security: resolve abs for %q: %w", dataDir, err)
	}
	// EvalSymlinks so that a symlinked root cannot be used to escape later.
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("security: eval symlinks for %q: %w", abs, err)
	}
	info, err := os.Stat(real)
	if err != nil {
		return nil, fmt.Errorf("security: stat %q: %w", real, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("security: data directory is not a directory: %q", real)
	}

	return &Manager{root: filepath.Clean(real), allowedExts: exts}, nil
}

// Root returns the canonical data directory.
func (m *Manager) Root() string {
	return m.root
}

// ValidateOpenPath ensures name refers to an existing file with an allowed
// extension inside the data directory. Relative names are resolved against
// the root. It returns the canonical absolute path suitable for opening.
func (m *Manager) ValidateOpenPath(name string) (string, error) {
	if name == "" {
		return "", ErrNotAllowed
	}
	// Extension check first for quick rejection.
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := m.allowedExts[ext]; !ok {
		return "", ErrUnsupportedExtension
	}

	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(m.root, p)
	}
	real, err := filepath.EvalSymlinks(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: eval symlinks: %w", err)
	}

	info, err := os.Stat(real)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("security: stat: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotAllowed
	}

	// filepath.Rel returns a path starting with ".." when outside.
	rel, err := filepath.Rel(m.root, real)
	if err != nil || rel == "." || strings.HasPrefix(filepath.Clean(rel), "..") {
		return "", ErrNotAllowed
	}
	return real, nil
}

// TableFS returns a read-only fs.FS over the data directory whose Open runs
// every name through ValidateOpenPath.
func (m *Manager) TableFS() fs.FS {
	return tableFS{m: m}
}

type tableFS struct {
	m *Manager
}

func (t tableFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	real, err := t.m.ValidateOpenPath(filepath.FromSlash(name))
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return os.Open(real)
}
