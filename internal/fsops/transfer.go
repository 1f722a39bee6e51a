package fsops

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/tabfm/tabfm/internal/models"
)

// Progress reports how far a transfer has come. Totals are zero until
// enumeration finishes.
type Progress struct {
	Op          string
	CurrentPath string
	BytesDone   int64
	BytesTotal  int64
	ItemsDone   int
	ItemsTotal  int
}

// CopyOptions controls copy behavior.
type CopyOptions struct {
	// Overwrite replaces an existing destination instead of failing.
	Overwrite bool
}

// DeleteOptions controls delete behavior.
type DeleteOptions struct {
	// Recursive allows deleting non-empty directories.
	Recursive bool
}

// DeleteResult reports exactly which entries were removed, including on
// failure or cancellation.
type DeleteResult struct {
	Removed []string
}

type transferItem struct {
	srcPath string
	dstPath string
	isDir   bool
	mode    fs.FileMode
	size    int64
}

// Copy copies a file or directory tree from src to dst, reporting progress
// on the optional progress channel. Cancellation is checked at chunk
// boundaries; a cancelled copy leaves the destination incomplete and the
// source untouched.
func (m *Manager) Copy(ctx context.Context, src, dst string, opts CopyOptions, progress chan<- Progress) error {
	logger := m.logger.WithFields(map[string]interface{}{
		"op_id": opID(),
		"src":   src,
		"dst":   dst,
	})

	srcInfo, err := os.Stat(src)
	if err != nil {
		return models.NewOpError("copy", src, err)
	}

	if _, err := os.Lstat(dst); err == nil {
		if !opts.Overwrite {
			return models.NewOpError("copy", dst, os.ErrExist)
		}
	}

	logger.Debug("Starting copy")

	if !srcInfo.IsDir() {
		report(progress, Progress{Op: "copy", CurrentPath: src, BytesTotal: srcInfo.Size(), ItemsTotal: 1})
		if err := m.copyFileChunked(ctx, src, dst, srcInfo.Mode(), srcInfo.Size(), newTally(progress, "copy", srcInfo.Size(), 1)); err != nil {
			return err
		}
		return nil
	}

	items, bytesTotal, err := enumerate(src, dst)
	if err != nil {
		return models.NewOpError("copy", src, err)
	}

	tally := newTally(progress, "copy", bytesTotal, len(items))

	if err := os.MkdirAll(dst, srcInfo.Mode().Perm()); err != nil {
		return models.NewOpError("copy", dst, err)
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			logger.Warn("Copy cancelled")
			return models.NewOpError("copy", item.srcPath, err)
		}

		if item.isDir {
			if err := os.MkdirAll(item.dstPath, item.mode.Perm()); err != nil {
				return models.NewOpError("copy", item.dstPath, err)
			}
			tally.item(item.dstPath)
			continue
		}

		if err := m.copyFileChunked(ctx, item.srcPath, item.dstPath, item.mode, item.size, tally); err != nil {
			return err
		}
		tally.item(item.dstPath)
	}

	logger.WithField("bytes", bytesTotal).Debug("Copy complete")
	return nil
}

// Move moves src to dst. A same-filesystem move is a single rename; across
// filesystems it degrades to copy-verify-remove, so the source is only
// removed once the destination is verified complete. A cancelled move
// leaves the source fully intact.
func (m *Manager) Move(ctx context.Context, src, dst string, progress chan<- Progress) error {
	if err := ctx.Err(); err != nil {
		return models.NewOpError("move", src, err)
	}

	if _, err := os.Lstat(dst); err == nil {
		return models.NewOpError("move", dst, os.ErrExist)
	}

	if err := os.Rename(src, dst); err == nil {
		m.logger.WithFields(map[string]interface{}{
			"src": src,
			"dst": dst,
		}).Debug("Moved by rename")
		report(progress, Progress{Op: "move", CurrentPath: dst, ItemsDone: 1, ItemsTotal: 1})
		return nil
	}

	// Rename failed (likely cross-device). Fall back to copy + verify +
	// remove; the source survives any failure before verification.
	if err := m.Copy(ctx, src, dst, CopyOptions{}, progress); err != nil {
		return &models.OpError{Op: "move", Path: src, Kind: models.KindOf(err), Err: err}
	}

	if err := verifyCopied(src, dst); err != nil {
		return models.NewOpError("move", dst, err)
	}

	if err := os.RemoveAll(src); err != nil {
		return models.NewOpError("move", src, err)
	}

	return nil
}

// Delete removes a file or directory. The returned result lists exactly
// the entries that were removed, even when the operation fails or is
// cancelled partway.
func (m *Manager) Delete(ctx context.Context, path string, opts DeleteOptions, progress chan<- Progress) (*DeleteResult, error) {
	result := &DeleteResult{}

	info, err := os.Lstat(path)
	if err != nil {
		return result, models.NewOpError("delete", path, err)
	}

	if !info.IsDir() {
		if err := os.Remove(path); err != nil {
			return result, models.NewOpError("delete", path, err)
		}
		result.Removed = append(result.Removed, path)
		report(progress, Progress{Op: "delete", CurrentPath: path, ItemsDone: 1, ItemsTotal: 1})
		return result, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return result, models.NewOpError("delete", path, err)
	}
	if len(entries) > 0 && !opts.Recursive {
		return result, &models.OpError{
			Op: "delete", Path: path, Kind: models.KindIO,
			Err: fmt.Errorf("directory not empty"),
		}
	}

	items, _, err := enumerate(path, "")
	if err != nil {
		return result, models.NewOpError("delete", path, err)
	}

	// Children before parents.
	sort.Slice(items, func(i, j int) bool {
		return len(items[i].srcPath) > len(items[j].srcPath)
	})

	total := len(items) + 1
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return result, models.NewOpError("delete", item.srcPath, err)
		}

		if err := os.Remove(item.srcPath); err != nil {
			return result, models.NewOpError("delete", item.srcPath, err)
		}
		result.Removed = append(result.Removed, item.srcPath)
		report(progress, Progress{Op: "delete", CurrentPath: item.srcPath, ItemsDone: len(result.Removed), ItemsTotal: total})
	}

	if err := os.Remove(path); err != nil {
		return result, models.NewOpError("delete", path, err)
	}
	result.Removed = append(result.Removed, path)
	report(progress, Progress{Op: "delete", CurrentPath: path, ItemsDone: len(result.Removed), ItemsTotal: total})

	m.logger.WithFields(map[string]interface{}{
		"path":    path,
		"removed": len(result.Removed),
	}).Debug("Delete complete")

	return result, nil
}

// copyFileChunked copies one file in chunks, checking cancellation between
// chunks.
func (m *Manager) copyFileChunked(ctx context.Context, src, dst string, mode fs.FileMode, size int64, tally *progressTally) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return models.NewOpError("copy", src, err)
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return models.NewOpError("copy", dst, err)
	}
	defer dstFile.Close()

	for {
		if err := ctx.Err(); err != nil {
			return models.NewOpError("copy", src, err)
		}

		n, err := io.CopyN(dstFile, srcFile, int64(m.chunkSize))
		if n > 0 {
			tally.bytes(n, src)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.NewOpError("copy", src, err)
		}
	}

	if err := dstFile.Sync(); err != nil {
		return models.NewOpError("copy", dst, err)
	}
	return nil
}

// enumerate walks root collecting every entry beneath it. When dstRoot is
// non-empty each item carries its mirrored destination path.
func enumerate(root, dstRoot string) ([]transferItem, int64, error) {
	var (
		mu    sync.Mutex
		items []transferItem
		total int64
	)

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := fastwalk.StatDirEntry(path, d)
		if err != nil {
			return err
		}

		item := transferItem{
			srcPath: path,
			isDir:   info.IsDir(),
			mode:    info.Mode(),
			size:    info.Size(),
		}
		if dstRoot != "" {
			item.dstPath = filepath.Join(dstRoot, rel)
		}

		mu.Lock()
		items = append(items, item)
		if !item.isDir {
			total += item.size
		}
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	// Parents before children so MkdirAll order is deterministic.
	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return len(items[i].srcPath) < len(items[j].srcPath)
	})

	return items, total, nil
}

// verifyCopied checks that every source file exists at the destination
// with the same size.
func verifyCopied(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if !srcInfo.IsDir() {
		dstInfo, err := os.Stat(dst)
		if err != nil {
			return err
		}
		if dstInfo.Size() != srcInfo.Size() {
			return fmt.Errorf("size mismatch for %s: %d != %d", dst, dstInfo.Size(), srcInfo.Size())
		}
		return nil
	}

	items, _, err := enumerate(src, dst)
	if err != nil {
		return err
	}
	for _, item := range items {
		dstInfo, err := os.Stat(item.dstPath)
		if err != nil {
			return err
		}
		if !item.isDir && dstInfo.Size() != item.size {
			return fmt.Errorf("size mismatch for %s: %d != %d", item.dstPath, dstInfo.Size(), item.size)
		}
	}
	return nil
}

// progressTally accumulates transfer totals and forwards them without
// blocking the transfer.
type progressTally struct {
	ch         chan<- Progress
	op         string
	bytesDone  int64
	bytesTotal int64
	itemsDone  int
	itemsTotal int
}

func newTally(ch chan<- Progress, op string, bytesTotal int64, itemsTotal int) *progressTally {
	return &progressTally{ch: ch, op: op, bytesTotal: bytesTotal, itemsTotal: itemsTotal}
}

func (t *progressTally) bytes(n int64, path string) {
	t.bytesDone += n
	t.send(path)
}

func (t *progressTally) item(path string) {
	t.itemsDone++
	t.send(path)
}

func (t *progressTally) send(path string) {
	report(t.ch, Progress{
		Op:          t.op,
		CurrentPath: path,
		BytesDone:   t.bytesDone,
		BytesTotal:  t.bytesTotal,
		ItemsDone:   t.itemsDone,
		ItemsTotal:  t.itemsTotal,
	})
}

// report sends a progress update without blocking; a sluggish listener
// just misses intermediate updates.
func report(ch chan<- Progress, p Progress) {
	if ch == nil {
		return
	}
	select {
	case ch <- p:
	default:
	}
}
