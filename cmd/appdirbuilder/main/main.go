package main

import (
	"fmt"
	"os"

	"github.com/arthur-debert/appdirbuilder/cmd/appdirbuilder"
	"github.com/arthur-debert/appdirbuilder/pkg/errors"
	"github.com/arthur-debert/appdirbuilder/pkg/styles"
)

func main() {
	rootCmd := appdirbuilder.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		errorStyle := styles.Get("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		if code := errors.GetErrorCode(err); code != errors.ErrUnknown {
			fmt.Fprintln(os.Stderr, styles.Render("Muted", "code: "+string(code)))
		}
		os.Exit(1)
	}
}
