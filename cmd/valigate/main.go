// Package main is the entry point for the valigate model validation
// service and CLI.
package main

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	Execute()
}
