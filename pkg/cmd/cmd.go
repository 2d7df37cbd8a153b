// Package cmd contains the command line applications for the project.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/configs"
)

var (
	// configPath 配置文件或配置目录.
	configPath string
	// debug 打印更多调试信息.
	debug bool

	rootCmd = &cobra.Command{
		Use:           "folio",
		Short:         "A portfolio catalog server and progressive-loading client",
		Version:       configs.AppVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return configs.InitConfig(configPath)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "config file or directory")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "print debug information")

	registerServeCommands()
	registerConfigsCommands()
	registerBackendsCommands()
	registerCatalogCommands()
	registerBrowseCommands()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
