package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
)

func main() {
	rootCmd := newRootCmd(afero.NewOsFs(), os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
