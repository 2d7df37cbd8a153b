package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/storage/kv"
	"github.com/yeisme/folio/pkg/internal/storage/mq"
)

// backendsCmd 列出编译进来的缓存与事件后端，并标出当前配置选用的一个.
var backendsCmd = &cobra.Command{
	Use:     "backends",
	Short:   "List the cache (kv) and change-event (mq) backends",
	Aliases: []string{"kv", "mq"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configs.GetConfig()

		rows := make([][]string, 0, 8)

		for _, t := range kv.GetRegisteredKVTypes() {
			rows = append(rows, []string{"kv", string(t), mark(string(t) == cfg.KV.Type), "catalog cache"})
		}

		mqTypes := mq.RegisteredTypes()
		slices.Sort(mqTypes)

		for _, t := range mqTypes {
			rows = append(rows, []string{"mq", string(t), mark(t == cfg.MQ.Type), "change events"})
		}

		fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Kind", "Backend", "Active", "Used for"}, rows))

		if cfg.KV.Type == "" || cfg.MQ.Type == "" {
			fmt.Fprintln(cmd.ErrOrStderr(), "note: backend not configured, server falls back to defaults")
		}

		return nil
	},
}

func mark(on bool) string {
	if on {
		return "*"
	}

	return ""
}

func registerBackendsCommands() {
	rootCmd.AddCommand(backendsCmd)
}
