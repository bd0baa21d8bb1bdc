package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Desure85/mcp-task-knowledge-sub001/internal/store"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("taskknow %s\n", version)
			fmt.Printf("Build Time: %s\n", buildTime)
			fmt.Printf("Build Mode: %s\n", store.BuildMode)
			fmt.Printf("SQLite Driver: %s\n", store.DriverName)
		},
	}
}
