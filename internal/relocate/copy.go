package relocate

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
)

type copyItem struct {
	src  string
	dst  string
	mode fs.FileMode
}

// copyTree copies the directory src to dst. Symlinks are recreated, not
// followed.
func copyTree(ctx context.Context, src, dst string) error {
	var (
		items []copyItem
		mu    sync.Mutex
	)

	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		mode := fs.ModeSymlink
		if d.Type()&fs.ModeSymlink == 0 {
			info, err := fastwalk.StatDirEntry(path, d)
			if err != nil {
				return err
			}
			mode = info.Mode()
		}

		mu.Lock()
		items = append(items, copyItem{src: path, dst: filepath.Join(dst, rel), mode: mode})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	// Directories first, parents before children.
	sort.Slice(items, func(i, j int) bool {
		di, dj := items[i].mode.IsDir(), items[j].mode.IsDir()
		if di != dj {
			return di
		}
		return len(items[i].dst) < len(items[j].dst)
	})

	for _, item := range items {
		switch {
		case item.mode.IsDir():
			if err := os.MkdirAll(item.dst, item.mode.Perm()|0o700); err != nil {
				return err
			}
		case item.mode&fs.ModeSymlink != 0:
			target, err := os.Readlink(item.src)
			if err != nil {
				return err
			}
			if err := os.Symlink(target, item.dst); err != nil {
				return err
			}
		default:
			if err := copyFile(item.src, item.dst, item.mode.Perm()); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
