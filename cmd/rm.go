package cmd

import (
	"fmt"
	"os"
)

// Remove securely deletes stored files. Content is overwritten with zeros
// before the directory entry disappears.
func Remove(queries []string) {
	v := OpenVault()
	defer v.Close()
	Login(v)

	removed := 0
	for _, query := range queries {
		ok, err := v.Store.Delete(query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot delete %s: %v\n", query, err)
			continue
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "warning: %s not found in vault\n", query)
			continue
		}
		removed++
		fmt.Printf("removed: %s\n", query)
	}

	if removed == 0 {
		fmt.Println("No matching files found in vault")
	}
}
