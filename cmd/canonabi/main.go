// Command canonabi inspects the Canonical ABI: type layouts, core
// signatures after flattening, and calls through the in-process fixture
// worlds.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
