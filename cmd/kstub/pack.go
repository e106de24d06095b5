package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kstub/internal/metadata"
)

var packCmd = &cobra.Command{
	Use:   "pack [flags] <unit.yaml> <out.kmeta|store-dir>",
	Short: "Assemble a YAML unit description into serialized metadata",
	Long: `Assemble a YAML unit description into serialized metadata.
With --store the unit is put into the store directory at its canonical path
instead of being written to a single file.`,
	Args: cobra.ExactArgs(2),
	RunE: packExecution,
}

func init() {
	packCmd.Flags().Bool("store", false, "treat the output as a store directory")
}

func packExecution(cmd *cobra.Command, args []string) error {
	intoStore, err := cmd.Flags().GetBool("store")
	if err != nil {
		return err
	}
	u, err := readUnitSource(args[0])
	if err != nil {
		return err
	}
	key, err := u.Key()
	if err != nil {
		return err
	}

	if intoStore {
		store, err := metadata.OpenStore(args[1])
		if err != nil {
			return err
		}
		if err := store.Put(u); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "packed %s into %s\n", key, store.PathFor(key))
		return nil
	}

	data, err := metadata.Marshal(u)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(args[1]); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[1], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "packed %s into %s\n", key, args[1])
	return nil
}

// readUnitSource decodes a YAML unit description and assembles it.
func readUnitSource(path string) (*metadata.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var src metadata.UnitSource
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&src); err != nil {
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
	}
	u, err := metadata.Assemble(&src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}
