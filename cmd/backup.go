package cmd

import (
	"fmt"

	"github.com/illarion/jumanvault/internal/backup"
	"github.com/illarion/jumanvault/internal/crypto"
)

// Backup creates an encrypted snapshot of the whole vault. By default the
// artifact is wrapped under the master key, which travels inside it; with
// askPassphrase set, an independent passphrase-derived key wraps it
// instead.
func Backup(askPassphrase bool) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	svc := backup.New(v.Auth, v.Store, v.Log)

	if askPassphrase {
		passphrase, err := ReadPasswordConfirm()
		if err != nil {
			HandleError(err)
		}
		defer crypto.ClearBytes(passphrase)
		svc.Passphrase = passphrase
	}

	artifact, err := svc.Create(v.Auth.MasterKey())
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("backup created: %s\n", artifact)
	if !askPassphrase {
		fmt.Println("note: the artifact is wrapped under the master key it contains;")
		fmt.Println("use --passphrase for a backup that survives a leaked artifact")
	}
}

// Restore unpacks an encrypted backup artifact into the target directory
func Restore(artifact, targetDir string, askPassphrase bool) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	svc := backup.New(v.Auth, v.Store, v.Log)

	if askPassphrase {
		passphrase, err := ReadPassword("Enter backup passphrase: ")
		if err != nil {
			HandleError(err)
		}
		defer crypto.ClearBytes(passphrase)
		svc.Passphrase = passphrase
	}

	if err := svc.Restore(artifact, v.Auth.MasterKey(), targetDir); err != nil {
		HandleError(err)
	}

	fmt.Printf("restored into: %s\n", targetDir)
}
