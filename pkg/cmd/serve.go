package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the portfolio HTTP server",
	// 配置由 app.NewApp 加载，这里覆盖根命令的预处理
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := app.NewApp(ctx, configPath)
		if err != nil {
			return err
		}

		return a.Run(ctx)
	},
}

// registerServeCommands 注册 serve 命令.
func registerServeCommands() {
	rootCmd.AddCommand(serveCmd)
}
