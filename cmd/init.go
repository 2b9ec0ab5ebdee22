package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/illarion/jumanvault/internal/auth"
)

// Init bootstraps the vault data directory
func Init() {
	v := OpenVault()
	defer v.Close()

	fmt.Printf("✓ Vault ready at %s\n", v.Auth.DataDir())
	fmt.Printf("  Vault ID: %s\n", v.Auth.VaultID())
	if !v.Auth.PasswordChanged() {
		fmt.Printf("  Login with the bootstrap credentials (%s) and run 'jumanvault passwd'\n", auth.BootstrapUsername)
	}
	fmt.Printf("  Recovery secret: %s (keep it offline)\n", filepath.Join(v.Auth.DataDir(), auth.RecoveryFile))
}
