package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/jumanvault/internal/crypto"
)

// Recover resets the vault password using the recovery secret
func Recover() {
	v := OpenVault()
	defer v.Close()

	token, err := ReadPassword("Enter recovery token: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(token)

	newPassword, err := ReadPasswordConfirm()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	defer crypto.ClearBytes(newPassword)

	ok, err := v.Auth.ResetPasswordWithRecovery(string(token), string(newPassword))
	if err != nil {
		HandleError(err)
	}
	if !ok {
		fmt.Fprintln(os.Stderr, "Error: wrong recovery token")
		os.Exit(1)
	}

	fmt.Println("password reset successfully")
}
