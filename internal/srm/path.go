// path.go - SRM path-set resolution, LIF name encoding, and catalog sorting

package srm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TruncateSet applies the '>' / '<' truncation spec.md §4.8 describes for
// decoded path-set component names.
func TruncateSet(name string) string {
	if i := strings.IndexAny(name, "><"); i >= 0 {
		return name[:i]
	}
	return name
}

// EncodeLIFName renders the on-disk file name HP-UX SRM files use:
// <lif_name>.<boot:08x>.<lif_type:04x>.
func EncodeLIFName(lifName string, boot uint32, lifType uint16) string {
	return fmt.Sprintf("%s.%08x.%04x", lifName, boot, lifType)
}

// DecodeLIFName splits an on-disk file name back into its LIF components.
func DecodeLIFName(fileName string) (lifName string, boot uint32, lifType uint16, ok bool) {
	parts := strings.Split(fileName, ".")
	if len(parts) < 3 {
		return "", 0, 0, false
	}
	n := len(parts)
	var b uint32
	var lt uint16
	if _, err := fmt.Sscanf(parts[n-2], "%08x", &b); err != nil {
		return "", 0, 0, false
	}
	if _, err := fmt.Sscanf(parts[n-1], "%04x", &lt); err != nil {
		return "", 0, 0, false
	}
	return strings.Join(parts[:n-2], "."), b, lt, true
}

// ResolveComponent resolves one path-set component against dir: an exact
// directory-entry match wins; otherwise the parent is scanned for a file
// whose decoded LIF name equals component, per spec.md §4.8's filesystem
// lookup fallback.
func ResolveComponent(dir, component string) (name string, isDir bool, err error) {
	component = TruncateSet(component)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false, err
	}
	for _, e := range entries {
		if e.Name() == component {
			return e.Name(), e.IsDir(), nil
		}
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if lifName, _, _, ok := DecodeLIFName(e.Name()); ok && lifName == component {
			return e.Name(), false, nil
		}
	}
	return "", false, os.ErrNotExist
}

// ResolvePath walks sets (0..7 name-set components) from root, returning
// the resolved absolute filesystem path.
func ResolvePath(root string, sets []string) (string, error) {
	cur := root
	for _, s := range sets {
		name, _, err := ResolveComponent(cur, s)
		if err != nil {
			return "", err
		}
		cur = filepath.Join(cur, name)
	}
	return cur, nil
}

// CatalogEntry is one directory listing row.
type CatalogEntry struct {
	Name  string
	IsDir bool
	Size  int64
}

// SortCatalog orders entries directories-before-files, then by lowercase
// name, the v2 decision recorded for Open Question 3.
func SortCatalog(entries []CatalogEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

// EncodeDate packs a date the way spec.md §4.8 describes:
// (month<<12)|(day<<7)|(year-1900 mod 100).
func EncodeDate(year, month, day int) uint16 {
	return uint16(month)<<12 | uint16(day)<<7 | uint16((year-1900)%100)
}

// SecondsSinceMidnight packs a time of day as seconds since 00:00.
func SecondsSinceMidnight(hour, min, sec int) uint32 {
	return uint32(hour*3600 + min*60 + sec)
}
