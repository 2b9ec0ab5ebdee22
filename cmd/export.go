package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/illarion/jumanvault/internal/crypto"
)

// Export decrypts a stored file to an explicit destination. With showDiff
// set and an existing destination, it prints what the overwrite would
// change instead of writing.
func Export(query, destination string, showDiff bool) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	if showDiff {
		if _, err := os.Stat(destination); err == nil {
			printOverwriteDiff(v, query, destination)
			return
		} else if !errors.Is(err, os.ErrNotExist) {
			HandleError(err)
		}
		fmt.Printf("%s does not exist yet; nothing to compare\n", destination)
		return
	}

	if err := v.Store.DecryptTo(destination, query, v.Auth.MasterKey()); err != nil {
		HandleError(err)
	}
	fmt.Printf("exported to: %s\n", destination)
}

func printOverwriteDiff(v *Vault, query, destination string) {
	vaultData, err := v.Store.Decrypt(query, v.Auth.MasterKey())
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(vaultData)

	localData, err := os.ReadFile(destination)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(localData)

	diff := unifiedDiff(destination, localData, vaultData)
	if diff == "" {
		fmt.Println("No changes: destination matches the vault copy")
		return
	}
	fmt.Print(diff)
}

// unifiedDiff renders a line-mode unified diff between the current
// destination content and the vault copy. Binary content gets a one-line
// notice instead.
func unifiedDiff(path string, localData, vaultData []byte) string {
	if string(localData) == string(vaultData) {
		return ""
	}

	if !looksTextual(localData) || !looksTextual(vaultData) {
		return fmt.Sprintf("Binary file %s differs from the vault copy\n", path)
	}

	dmp := diffmatchpatch.New()

	localStr, vaultStr := string(localData), string(vaultData)
	a, b, lineArray := dmp.DiffLinesToChars(localStr, vaultStr)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	patches := dmp.PatchMake(localStr, diffs)
	if len(patches) == 0 {
		return ""
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("--- a/%s (current)\n", path))
	result.WriteString(fmt.Sprintf("+++ b/%s (vault)\n", path))
	result.WriteString(dmp.PatchToText(patches))
	return result.String()
}

func looksTextual(data []byte) bool {
	sample := data
	if len(sample) > 8000 {
		sample = sample[:8000]
	}
	for _, b := range sample {
		if b == 0 {
			return false
		}
	}
	return utf8.Valid(sample)
}
