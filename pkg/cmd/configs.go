package cmd

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/rule"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective configuration",
	}

	configPathCmd = &cobra.Command{
		Use:   "path",
		Short: "Print the config file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return errors.New("config not initialized")
			}

			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(cmd.OutOrStdout(), used)
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), "(defaults and FOLIO_* environment only)")

			return nil
		},
	}

	// configShowCmd 以 JSON 打印合并后的配置；--debug 时额外输出 viper 的键值来源.
	configShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "Print the merged configuration as JSON",
		Aliases: []string{"debug"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := configs.GetViper()
			if v == nil {
				return errors.New("config not initialized")
			}

			if debug {
				v.DebugTo(cmd.ErrOrStderr())
			}

			b, err := sonic.ConfigStd.MarshalIndent(configs.GetConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}

	// configCheckCmd 对合并后的配置重新跑一遍 rule 校验，逐字段列出失败项.
	configCheckCmd = &cobra.Command{
		Use:     "check",
		Short:   "Validate the merged configuration",
		Aliases: []string{"validate"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := rule.ValidateStruct(configs.GetConfig())
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "config ok")
				return nil
			}

			fields := rule.Errors(err)
			if fields == nil {
				return err
			}

			rows := make([][]string, 0, len(fields))
			for _, name := range slices.Sorted(maps.Keys(fields)) {
				rows = append(rows, []string{name, fields[name]})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Problem"}, rows))

			return fmt.Errorf("config has %d invalid field(s)", len(fields))
		},
	}
)

func registerConfigsCommands() {
	configCmd.AddCommand(configPathCmd, configShowCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
