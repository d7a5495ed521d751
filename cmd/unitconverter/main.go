package main

import "github.com/gtrackerpro/unitconverter/internal/cli"

func main() { cli.Main() }
