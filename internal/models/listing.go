package models

import (
	"io/fs"
	"time"
)

// EntryKind distinguishes the entry types a listing can contain.
type EntryKind string

const (
	EntryFile      EntryKind = "file"
	EntryDirectory EntryKind = "directory"
	EntrySymlink   EntryKind = "symlink"
	EntryOther     EntryKind = "other"
)

// KindOfMode maps a file mode onto an entry kind.
func KindOfMode(mode fs.FileMode) EntryKind {
	switch {
	case mode.IsDir():
		return EntryDirectory
	case mode&fs.ModeSymlink != 0:
		return EntrySymlink
	case mode.IsRegular():
		return EntryFile
	default:
		return EntryOther
	}
}

// Entry is one item within a directory listing.
type Entry struct {
	Name     string    `json:"name"`
	Kind     EntryKind `json:"kind"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// DirectoryListing is the result of listing a directory. It is ephemeral:
// consumed once to refresh a tab, never persisted.
type DirectoryListing struct {
	Path        string    `json:"path"`
	Entries     []Entry   `json:"entries"`
	GeneratedAt time.Time `json:"generated_at"`
}
