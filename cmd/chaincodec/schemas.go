package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"chaincodec/internal/batch"
	"chaincodec/internal/config"
	"chaincodec/internal/model"
	"chaincodec/internal/registry"
)

func newSchemasCmd() *cobra.Command {
	schemasCmd := &cobra.Command{
		Use:   "schemas",
		Short: "Inspect schema sources",
	}
	schemasCmd.PersistentFlags().StringSlice("schemas", nil, "schema files or directories (comma-separated)")
	schemasCmd.PersistentFlags().String("chain-family", "", "extra chain slug to decoder family mappings (comma-separated slug=family)")
	schemasCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest version of every schema",
		RunE:  runSchemasList,
	}
	listCmd.Flags().String("chain", "", "only schemas that apply to this chain slug (all versions)")

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show every version of one schema",
		RunE:  runSchemasHistory,
	}
	historyCmd.Flags().String("name", "", "schema name")

	schemasCmd.AddCommand(listCmd, historyCmd)
	return schemasCmd
}

func loadRegistry(cfg config.SchemasConfig) (*registry.Memory, error) {
	if len(cfg.Schemas) == 0 {
		return nil, fmt.Errorf("at least one schema source is required")
	}
	reg := registry.NewMemory()
	engine := batch.NewDefaultEngine(reg)
	if err := applyChainFamilies(engine, cfg.ChainFamily); err != nil {
		return nil, err
	}
	if _, err := reg.Load(cfg.Schemas, registry.DocumentParser{Fingerprint: engine.SchemaFingerprint}); err != nil {
		return nil, err
	}
	return reg, nil
}

func runSchemasList(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSchemas(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	schemas := reg.AllSchemas()
	if cfg.Chain != "" {
		schemas = reg.ListForChain(cfg.Chain)
	}
	return printSchemas(cmd, schemas)
}

func runSchemasHistory(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSchemas(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Name == "" {
		return fmt.Errorf("schema name is required")
	}

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	history := reg.History(cfg.Name)
	if len(history) == 0 {
		return fmt.Errorf("schema %q not found", cfg.Name)
	}
	return printSchemas(cmd, history)
}

func printSchemas(cmd *cobra.Command, schemas []*model.Schema) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tFINGERPRINT\tCHAINS\tTRUST\tDEPRECATED")
	for _, s := range schemas {
		trust := string(s.Meta.TrustLevel)
		if trust == "" {
			trust = string(model.TrustUnverified)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%t\n",
			s.Name, s.Version, s.Fingerprint, strings.Join(s.Chains, ","), trust, s.Deprecated)
	}
	return w.Flush()
}
