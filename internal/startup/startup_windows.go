//go:build windows

package startup

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

func Path() string {
	appData := os.Getenv("APPDATA")
	return filepath.Join(appData, "Microsoft", "Windows", "Start Menu", "Programs", "Startup", appName+".lnk")
}

func IsEnabled() bool {
	_, err := os.Stat(Path())
	return err == nil
}

func Enable() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	quote := func(s string) string { return strings.ReplaceAll(s, `"`, "`\"") }
	script := `$WshShell = New-Object -ComObject WScript.Shell; ` +
		`$Shortcut = $WshShell.CreateShortcut("` + quote(Path()) + `"); ` +
		`$Shortcut.TargetPath = "` + quote(exePath) + `"; ` +
		`$Shortcut.Arguments = "tray"; ` +
		`$Shortcut.Save()`

	cmd := exec.Command("powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", script)
	return cmd.Run()
}

func Disable() error {
	return os.Remove(Path())
}
