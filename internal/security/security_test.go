package security

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	// Ensure real path (EvalSymlinks on macOS can change /var -> /private/var)
	real, err := filepath.EvalSymlinks(d)
	if err != nil {
		t.Fatalf("eval symlinks: %v", err)
	}
	return real
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestNewManager_RequiresDirectory(t *testing.T) {
	if _, err := NewManager("", nil); err == nil {
		t.Fatalf("expected error for empty data dir")
	}

	dir := mustTempDir(t)
	file := filepath.Join(dir, "plain.json")
	writeFile(t, file, "{}")
	if _, err := NewManager(file, nil); err == nil {
		t.Fatalf("expected error for non-directory root")
	}

	m, err := NewManager(dir, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if m.Root() != dir {
		t.Fatalf("root = %q, want %q", m.Root(), dir)
	}
}

func TestNewManager_InvalidExtension(t *testing.T) {
	if _, err := NewManager(mustTempDir(t), []string{"json"}); err == nil {
		t.Fatalf("expected error for extension without leading dot")
	}
}

func TestValidateOpenPath_AllowsWithinRoot(t *testing.T) {
	root := mustTempDir(t)
	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeFile(t, filepath.Join(sub, "lte_bands.json"), "{}")

	m, err := NewManager(root, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	got, err := m.ValidateOpenPath(filepath.Join("sub", "lte_bands.json"))
	if err != nil {
		t.Fatalf("validate path: %v", err)
	}
	// Path returned should be canonical absolute
	if !filepath.IsAbs(got) {
		t.Fatalf("expected absolute path, got %q", got)
	}
}

func TestValidateOpenPath_DeniesOutsideRoot(t *testing.T) {
	root := mustTempDir(t)
	outsideDir := mustTempDir(t)
	outside := filepath.Join(outsideDir, "escape.json")
	writeFile(t, outside, "{}")

	m, err := NewManager(root, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath(outside); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for outside path, got %v", err)
	}
}

func TestValidateOpenPath_SymlinkEscapeDenied(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink test skipped on Windows")
	}
	root := mustTempDir(t)
	outsideDir := mustTempDir(t)
	target := filepath.Join(outsideDir, "target.json")
	writeFile(t, target, "{}")
	link := filepath.Join(root, "nr_bands.json")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	m, err := NewManager(root, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath("nr_bands.json"); !errors.Is(err, ErrNotAllowed) {
		t.Fatalf("expected ErrNotAllowed for symlink escape, got %v", err)
	}
}

func TestValidateOpenPath_UnsupportedExt(t *testing.T) {
	root := mustTempDir(t)
	writeFile(t, filepath.Join(root, "bad.txt"), "x")

	m, err := NewManager(root, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.ValidateOpenPath("bad.txt"); !errors.Is(err, ErrUnsupportedExtension) {
		t.Fatalf("expected unsupported extension error, got %v", err)
	}
}

func TestTableFS_ReadsAndReportsMissing(t *testing.T) {
	root := mustTempDir(t)
	writeFile(t, filepath.Join(root, "restricted_bands.json"), `{"restricted_bands":[]}`)

	m, err := NewManager(root, nil)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	fsys := m.TableFS()

	b, err := fs.ReadFile(fsys, "restricted_bands.json")
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(b) != `{"restricted_bands":[]}` {
		t.Fatalf("unexpected content %q", b)
	}

	_, err = fs.ReadFile(fsys, "part15_limits.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist for missing table, got %v", err)
	}

	if _, err := fsys.Open("../escape.json"); !errors.Is(err, fs.ErrInvalid) {
		t.Fatalf("expected fs.ErrInvalid for parent traversal, got %v", err)
	}
}
