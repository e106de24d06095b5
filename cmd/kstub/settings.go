package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"kstub/internal/config"
	"kstub/internal/metadata"
	"kstub/internal/stubbuilder"
)

// activeConfig is the configuration of the running command: the config file
// (or defaults) with global flags applied on top.
var activeConfig = config.Default()

func loadSettings(cmd *cobra.Command) error {
	pf := cmd.Root().PersistentFlags()
	path, err := pf.GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, _, err = config.Load(".")
	}
	if err != nil {
		return err
	}

	overrides := []struct {
		flag string
		dst  *string
	}{
		{"trace", &cfg.Trace.Output},
		{"trace-level", &cfg.Trace.Level},
		{"trace-mode", &cfg.Trace.Mode},
	}
	for _, o := range overrides {
		if !pf.Changed(o.flag) {
			continue
		}
		v, err := pf.GetString(o.flag)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", o.flag, err)
		}
		*o.dst = v
	}
	if pf.Changed("trace-heartbeat") {
		d, err := pf.GetDuration("trace-heartbeat")
		if err != nil {
			return fmt.Errorf("failed to get trace-heartbeat flag: %w", err)
		}
		cfg.Trace.Heartbeat = d.String()
	}
	// --trace alone turns tracing on at phase level
	if pf.Changed("trace") && !pf.Changed("trace-level") && cfg.Trace.Level == "off" {
		cfg.Trace.Level = "phase"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	activeConfig = cfg
	return nil
}

// newBuilder wires stub-building components over repo using activeConfig.
func newBuilder(repo metadata.Repository) *stubbuilder.Builder {
	components := stubbuilder.NewComponents(repo, activeConfig.CollectionMapping(), activeConfig.ApproximatorOptions()...)
	return stubbuilder.NewBuilder(components)
}
