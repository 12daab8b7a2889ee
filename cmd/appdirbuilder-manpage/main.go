package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra/doc"

	"github.com/arthur-debert/appdirbuilder/cmd/appdirbuilder"
	"github.com/arthur-debert/appdirbuilder/internal/version"
)

func main() {
	rootCmd := appdirbuilder.NewRootCmd()

	header := &doc.GenManHeader{
		Title:   "APPDIR-BUILDER",
		Section: "1",
		Source:  "appdir-builder " + version.Version,
		Manual:  "appdir-builder manual",
	}

	err := doc.GenMan(rootCmd, header, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating man page: %v\n", err)
		os.Exit(1)
	}
}
