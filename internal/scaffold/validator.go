package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dyluth/modcat/internal/config"
)

// CheckExisting checks if a modcat configuration already exists in dir.
// Returns an error if one does, nil otherwise
func CheckExisting(dir string) error {
	var existingFiles []string

	for _, name := range []string{config.DefaultFileName, "modcat.toml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			existingFiles = append(existingFiles, name)
		}
	}

	if len(existingFiles) > 0 {
		errMsg := "configuration already initialized\n\nFound existing"
		if len(existingFiles) == 1 {
			errMsg += fmt.Sprintf(": %s\n", existingFiles[0])
		} else {
			errMsg += " files:\n"
			for _, file := range existingFiles {
				errMsg += fmt.Sprintf("  - %s\n", file)
			}
		}
		errMsg += "\nUse 'modcat init --force' to reinitialize (this will overwrite existing configuration)"

		return fmt.Errorf("%s", errMsg)
	}

	return nil
}
