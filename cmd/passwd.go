package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/keyring"
)

// Passwd changes the vault password
func Passwd() {
	v := OpenVault()
	defer v.Close()
	Login(v)

	newPassword, err := ReadPasswordConfirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(newPassword)

	if err := v.Auth.SetPassword(string(newPassword)); err != nil {
		HandleError(err)
	}

	// Refresh a stale keyring entry if one exists
	if vaultID := v.Auth.VaultID(); vaultID != "" && keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, string(newPassword)); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	fmt.Println("password changed successfully")
}
