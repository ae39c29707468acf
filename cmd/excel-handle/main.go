// Package main provides the excel-handle command: reconcile an upload plan
// against the actual uploads from the command line, a terminal UI or a web page.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
