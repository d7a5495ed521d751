// Command testctl builds, tests and smoke-checks unitconverter.
package main

import (
	"os"

	"github.com/gtrackerpro/unitconverter/internal/testctl"
)

func main() { os.Exit(testctl.Main()) }
