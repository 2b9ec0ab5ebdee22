package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

// Ls lists files stored in the vault. Stored names are plain directory
// entries, so no password is required.
func Ls() {
	v := OpenVault()
	defer v.Close()

	names, err := v.Store.List()
	if err != nil {
		HandleError(err)
	}

	if len(names) == 0 {
		fmt.Println("No files in vault")
		return
	}

	fmt.Printf("Files in vault (%d):\n", len(names))
	for _, name := range names {
		info, err := os.Stat(filepath.Join(v.Store.Dir(), name))
		if err != nil {
			fmt.Printf("  %s\n", name)
			continue
		}
		fmt.Printf("  %s (%s)\n", name, formatSize(info.Size()))
	}
}
