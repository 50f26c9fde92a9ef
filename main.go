package main

import (
	"github.com/soda-framework/installer/cmd"
)

// main is the program entry point. It delegates to cmd.Execute, which parses
// the command line and runs the requested command.
//
// The soda installer creates a Soda CMS application:
//   - Resolves the requested CMS release constraint to a compatible framework
//     version and to the CMS version bracket whose install steps apply
//   - Downloads and unpacks the framework release archive into the project directory
//   - Requires the CMS package with Composer, registers its service provider,
//     and runs the bracket's configure and migrate commands
//   - Checks in the background whether a newer installer release exists,
//     caching the answer in the system temp directory
//
// Any failure before or during installation exits with a non-zero status.
// The update check never fails an installation.
func main() {
	cmd.Execute()
}
