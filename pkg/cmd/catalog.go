package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/configs"
	"github.com/yeisme/folio/pkg/internal/catalog"
	"github.com/yeisme/folio/pkg/internal/service"
)

var (
	catalogRoot   string
	catalogPrefix string
	catalogJSON   bool

	catalogCmd = &cobra.Command{
		Use:     "catalog",
		Short:   "inspect the portfolio collection on disk",
		Aliases: []string{"cat"},
	}

	catalogListCmd = &cobra.Command{
		Use:     "list",
		Short:   "resolve and list the catalog in serving order",
		Aliases: []string{"ls", "l"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newCatalogService()

			cat, err := svc.Catalog(cmd.Context())
			if err != nil {
				return collectionError(err)
			}

			out := cmd.OutOrStdout()

			if catalogJSON {
				return printJSON(cmd, cat.Items())
			}

			rows := make([][]string, 0, len(cat.Entries))
			for _, e := range cat.Entries {
				rows = append(rows, []string{
					strconv.Itoa(e.ID),
					e.Title,
					e.Type,
					e.Date,
					age(e.Date),
					strings.Join(e.Tags, ", "),
					e.Folder + "/" + e.Main,
				})
			}

			fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Type", "Date", "Age", "Tags", "Main"}, rows, 0))
			fmt.Fprintf(out, "%d items%s\n", len(cat.Entries), skippedSummary(cat.Skipped))

			return nil
		},
	}

	catalogShowCmd = &cobra.Command{
		Use:   "show <id>",
		Short: "show the full record of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newCatalogService()
			id := catalog.CoerceID(args[0])

			detail, err := svc.Detail(cmd.Context(), id)
			if err != nil {
				return collectionError(err)
			}

			if catalogJSON {
				return printJSON(cmd, detail)
			}

			rows := [][]string{
				{"id", strconv.Itoa(detail.ID)},
				{"title", detail.Title},
				{"type", detail.Type},
				{"src", detail.Src},
				{"date", detail.Date + " (" + age(detail.Date) + ")"},
				{"tags", strings.Join(detail.Tags, ", ")},
				{"link", linkOf(detail.Link)},
				{"description", detail.Description},
			}

			if entry, err := svc.Entry(cmd.Context(), id); err == nil {
				if info, err := os.Stat(svc.Resolver().MediaPath(entry)); err == nil {
					rows = append(rows, []string{"size", humanize.Bytes(uint64(info.Size()))})
				}
			}

			for i, g := range detail.Gallery {
				rows = append(rows, []string{"gallery[" + strconv.Itoa(i) + "]", g})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows))

			return nil
		},
	}
)

func newCatalogService() *service.PortfolioService {
	cfg := configs.GetConfig().Portfolio
	if catalogRoot != "" {
		cfg.Root = catalogRoot
	}

	if catalogPrefix != "" {
		cfg.URLPrefix = catalogPrefix
	}

	// 命令行每次都直接读磁盘
	cfg.Cache.Enabled = false

	return service.NewPortfolioService(cfg, nil)
}

func collectionError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrCollectionMissing):
		return fmt.Errorf("portfolio directory not found")
	case errors.Is(err, catalog.ErrItemNotFound):
		return fmt.Errorf("portfolio item not found")
	default:
		return err
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(b))

	return nil
}

// age 返回可读的相对时间，日期无法解析时返回 "-".
func age(date string) string {
	t, ok := catalog.ParseDate(date)
	if !ok {
		return "-"
	}

	return humanize.Time(t)
}

func linkOf(link *string) string {
	if link == nil {
		return "-"
	}

	return *link
}

func skippedSummary(skipped map[catalog.SkipReason]int) string {
	if len(skipped) == 0 {
		return ""
	}

	parts := make([]string, 0, len(skipped))
	for reason, n := range skipped {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, n))
	}

	sort.Strings(parts)

	return ", skipped: " + strings.Join(parts, " ")
}

// registerCatalogCommands 注册 catalog 相关命令.
func registerCatalogCommands() {
	catalogCmd.PersistentFlags().StringVar(&catalogRoot, "root", "", "collection root (overrides portfolio.root)")
	catalogCmd.PersistentFlags().StringVar(&catalogPrefix, "prefix", "", "url prefix (overrides portfolio.url_prefix)")
	catalogCmd.PersistentFlags().BoolVar(&catalogJSON, "json", false, "print JSON instead of a table")

	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogShowCmd)
	rootCmd.AddCommand(catalogCmd)
}
