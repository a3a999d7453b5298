// file: main.go
// version: 2.0.0
// guid: 3b5d7f9a-1c2e-4a4b-8d6f-0a2c4e6a8c10

package main

import (
	"fmt"
	"os"

	"github.com/jdfalk/book-library/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
