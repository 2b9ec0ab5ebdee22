package cmd

import (
	"fmt"
	"os"
)

// Add encrypts files into the vault. Originals are removed best-effort
// after encryption succeeds.
func Add(files []string) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	stored := 0
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cannot access %s: %v\n", file, err)
			continue
		}

		name, err := v.Store.StoreEncrypted(file, v.Auth.MasterKey())
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot store %s: %v\n", file, err)
			continue
		}
		stored++
		fmt.Printf("stored: %s\n", name)
	}

	if stored == 0 {
		fmt.Fprintln(os.Stderr, "Error: no files stored")
		os.Exit(1)
	}
}
