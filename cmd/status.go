package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/illarion/jumanvault/internal/crypto"
)

// Status prints vault information. No password required.
func Status() {
	v := OpenVault()
	defer v.Close()

	names, err := v.Store.List()
	if err != nil {
		HandleError(err)
	}

	var totalSize int64
	for _, name := range names {
		if info, err := os.Stat(filepath.Join(v.Store.Dir(), name)); err == nil {
			totalSize += info.Size()
		}
	}

	fmt.Printf("Vault:          %s\n", v.Auth.DataDir())
	fmt.Printf("Vault ID:       %s\n", v.Auth.VaultID())
	fmt.Printf("Username:       %s\n", v.Auth.Username())
	if v.Auth.PasswordChanged() {
		fmt.Printf("Password:       set\n")
	} else {
		fmt.Printf("Password:       bootstrap (run 'jumanvault passwd')\n")
	}
	fmt.Printf("Stored files:   %d (%s)\n", len(names), formatSize(totalSize))
	fmt.Printf("Algorithm:      AES-256-GCM\n")
	fmt.Printf("KDF iterations: %d\n", crypto.DefaultIters)
}
