// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of quickpick",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("quickpick %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
