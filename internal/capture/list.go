package capture

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// List returns the PNG captures in dir whose names start with base,
// oldest first. An empty base lists every PNG.
func List(dir, base string) ([]Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		if base != "" && !strings.HasPrefix(name, base+"_") && !strings.HasPrefix(name, base+" ") {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{Path: filepath.Join(dir, name), Size: info.Size(), ModTime: info.ModTime()})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].Path < out[j].Path
		}
		return out[i].ModTime.Before(out[j].ModTime)
	})
	return out, nil
}
