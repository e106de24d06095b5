package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"kstub/internal/metadata"
	"kstub/internal/stubs"
)

var decompileCmd = &cobra.Command{
	Use:   "decompile [flags] <file.kmeta>",
	Short: "Print the decompiled declarations of one compiled unit",
	Long: `Print the decompiled declarations of one compiled unit.
Nested classes and class annotations are looked up in --store; without it
only the unit itself is visible.`,
	Args: cobra.ExactArgs(1),
	RunE: decompileExecution,
}

func init() {
	decompileCmd.Flags().String("format", "text", "output format (text|json)")
	decompileCmd.Flags().String("store", "", "metadata store holding related units")
}

func decompileExecution(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	storeDir, err := cmd.Flags().GetString("store")
	if err != nil {
		return err
	}
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}

	u, err := metadata.ReadFile(args[0])
	if err != nil {
		return err
	}
	var repo metadata.Repository
	if storeDir != "" {
		if repo, err = openExistingStore(storeDir); err != nil {
			return err
		}
	} else {
		mem := metadata.NewMemStore()
		if err := mem.Put(u); err != nil {
			return err
		}
		repo = mem
	}

	f, err := newBuilder(repo).BuildUnit(cmd.Context(), u)
	if err != nil {
		return err
	}
	if format == "json" {
		return stubs.WriteJSON(cmd.OutOrStdout(), f)
	}
	return stubs.Render(cmd.OutOrStdout(), f)
}
