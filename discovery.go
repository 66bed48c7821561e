// FILE: lixenwraith/settings/discovery.go
package settings

import (
	"os"
	"path/filepath"
)

const (
	// DotenvEnvVar names an explicit dotenv path, bypassing discovery
	DotenvEnvVar = "SETTINGS_DOTENV"

	// DotenvFile is the dotenv file name looked up at the project root
	DotenvFile = ".env"

	// projectMarker identifies the project root directory
	projectMarker = "go.mod"
)

// FindProjectRoot walks up from start to the nearest directory holding a
// go.mod file. It returns start when no such directory exists.
func FindProjectRoot(start string) string {
	dir, err := filepath.Abs(start)
	if err != nil {
		return start
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, projectMarker)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}

// DotenvPath returns the dotenv file read by Load when no path is given:
// $SETTINGS_DOTENV if set, otherwise .env at the project root.
func DotenvPath() string {
	if path := os.Getenv(DotenvEnvVar); path != "" {
		return path
	}

	cwd, err := os.Getwd()
	if err != nil {
		return DotenvFile
	}
	return filepath.Join(FindProjectRoot(cwd), DotenvFile)
}
