// The main package for the eprm executable.
package main

import (
	"github.com/pkaravel/eprm-crawler/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
