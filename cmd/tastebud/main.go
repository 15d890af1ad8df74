package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "tastebud"}

	root.AddCommand(serveCMD(), ingestCMD(), chatCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
