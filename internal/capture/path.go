package capture

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath turns a configured output directory into an absolute path.
// "~" expands to the home directory and $VARS from the environment; a
// "$" that names no set variable is kept as written. A
// leading "//" is relative to the document's directory, falling back to
// the working directory when there is no document. Other relative paths
// are resolved against the working directory.
func ExpandPath(raw, doc string) (string, error) {
	p := os.Expand(raw, lookupEnv)

	switch {
	case p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`):
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	case strings.HasPrefix(p, "//"):
		rel := strings.TrimPrefix(p, "//")
		if doc != "" {
			return filepath.Clean(filepath.Join(filepath.Dir(doc), rel)), nil
		}
		p = rel
	}

	return filepath.Abs(p)
}

func lookupEnv(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return "$" + name
}
