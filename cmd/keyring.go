package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/jumanvault/internal/crypto"
	"github.com/illarion/jumanvault/internal/keyring"
)

// Keyring manages the OS keyring cache of the vault password.
// Supported actions: save, clear, status.
func Keyring(action string) {
	v := OpenVault()
	defer v.Close()

	vaultID := v.Auth.VaultID()
	if vaultID == "" {
		fmt.Fprintln(os.Stderr, "Error: vault has no ID; run 'jumanvault init' first")
		os.Exit(1)
	}

	switch action {
	case "save":
		password, err := ReadPassword("Enter password: ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		defer crypto.ClearBytes(password)

		if !v.Auth.VerifyPassword(string(password)) {
			fmt.Fprintln(os.Stderr, "Error: wrong password")
			os.Exit(1)
		}
		if err := keyring.SavePassword(vaultID, string(password)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot save to keyring: %s\n", err)
			os.Exit(1)
		}
		fmt.Println("password saved to OS keyring")

	case "clear":
		if err := keyring.DeletePassword(vaultID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot clear keyring: %s\n", err)
			os.Exit(1)
		}
		fmt.Println("password removed from OS keyring")

	case "status":
		if keyring.HasPassword(vaultID) {
			fmt.Println("password is cached in the OS keyring")
		} else {
			fmt.Println("no password cached")
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown keyring action: %s\n", action)
		fmt.Fprintln(os.Stderr, "Usage: jumanvault keyring <save|clear|status>")
		os.Exit(1)
	}
}
