// Command dispatchctl is the CLI entry point; see the cmd package for the
// actual command tree.
package main

import "github.com/keyfirmware/apdudispatch/cmd"

func main() {
	cmd.Execute()
}
