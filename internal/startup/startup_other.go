//go:build !windows

package startup

import (
	"fmt"
	"os"
	"path/filepath"
)

var executable = os.Executable

// Path is the XDG autostart entry for timelens.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "autostart", appName+".desktop")
}

func IsEnabled() bool {
	_, err := os.Stat(Path())
	return err == nil
}

func Enable() error {
	exePath, err := executable()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(Path()), 0755); err != nil {
		return err
	}
	return os.WriteFile(Path(), []byte(desktopEntry(exePath)), 0644)
}

func Disable() error {
	return os.Remove(Path())
}

func desktopEntry(exePath string) string {
	return fmt.Sprintf(`[Desktop Entry]
Type=Application
Name=timelens
Comment=Periodic screenshots of your work
Exec="%s" tray
Terminal=false
X-GNOME-Autostart-enabled=true
`, exePath)
}
