package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (

	// Name used for directory and file naming.
	toolName = "anvil"

	// Name of the workspace configuration file.
	ConfigName = "anvil.hcl"

	// Default permission mode for directories.
	DefaultDirMode os.FileMode = 0755

	// Default permission mode for files.
	DefaultFileMode os.FileMode = 0644

	// Default permission mode for generated shell scripts.
	DefaultScriptMode os.FileMode = 0755
)

// Path to the directory for persistent tool state.
//
//	Linux:   $XDG_STATE_HOME/anvil or ~/.local/state/anvil
//	macOS:   ~/Library/Application Support/anvil
func State() string {
	return filepath.Join(xdg.StateHome, toolName)
}

// Path to the directory where per-job build logs are written.
//
//	Linux:   $XDG_STATE_HOME/anvil/logs
func Logs() string {
	return filepath.Join(State(), "logs")
}

// Path to the workspace configuration file inside the given workspace root.
func ConfigFile(workspaceDir string) string {
	return filepath.Join(workspaceDir, ConfigName)
}
