package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// localTier stores blobs as plain files under a root directory.
type localTier struct {
	name    string
	root    string
	baseURL string
}

// NewLocal creates a filesystem-backed tier rooted at root. The directory is
// created if missing.
func NewLocal(name, root, baseURL string) (Tier, error) {
	if root == "" {
		return nil, fmt.Errorf("local tier %s: root directory is required", name)
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create tier root %s: %w", root, err)
	}
	return &localTier{name: name, root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (t *localTier) Name() string { return t.name }

func (t *localTier) Open(_ context.Context, p string) (io.ReadCloser, error) {
	f, err := os.Open(t.AbsolutePath(p))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	return f, err
}

// Save writes r to a temp file and renames it into place, so readers never
// observe a half-written blob. On name collision an alternate path with a
// short random suffix is chosen.
func (t *localTier) Save(_ context.Context, p string, r io.Reader, _ int64) (string, error) {
	actual := p
	for {
		if _, err := os.Stat(t.AbsolutePath(actual)); os.IsNotExist(err) {
			break
		} else if err != nil {
			return "", err
		}
		actual = alternateName(p)
	}

	full := t.AbsolutePath(actual)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return "", err
	}
	tmp := full + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return actual, nil
}

func (t *localTier) Delete(_ context.Context, p string) error {
	err := os.Remove(t.AbsolutePath(p))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (t *localTier) Exists(_ context.Context, p string) (bool, error) {
	_, err := os.Stat(t.AbsolutePath(p))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *localTier) Size(_ context.Context, p string) (int64, error) {
	st, err := os.Stat(t.AbsolutePath(p))
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("%s: %w", p, ErrNotExist)
	}
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

func (t *localTier) URL(p string) string {
	if t.baseURL == "" {
		return ""
	}
	return t.baseURL + "/" + strings.TrimLeft(p, "/")
}

func (t *localTier) AbsolutePath(p string) string {
	return filepath.Join(t.root, filepath.FromSlash(p))
}

// alternateName derives a collision-avoiding variant of p by inserting a
// short random suffix before the extension.
func alternateName(p string) string {
	ext := path.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	return stem + "_" + uuid.NewString()[:8] + ext
}
