package cmd

import (
	"fmt"
)

// Open decrypts a stored file into a temporary file for viewing.
// The temp file is registered in the journal and swept on the next run.
func Open(query string) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	tmpPath, err := v.Store.DecryptToTemp(query, v.Auth.MasterKey())
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("decrypted to: %s\n", tmpPath)
	fmt.Println("The file will be cleaned up on the next vault command")
}
