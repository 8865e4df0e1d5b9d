// Command plangen renders prompts, reads raw model replies and runs dry plan
// generations against the configured provider chain, without touching the store.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
