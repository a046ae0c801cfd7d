// Package main provides the transcripts CLI for loading, viewing and
// exporting normalized agent session transcripts.
package main

import "os"

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(NewApp().Run(os.Args))
}
