package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yeisme/folio/pkg/api"
	"github.com/yeisme/folio/pkg/client"
	"github.com/yeisme/folio/pkg/configs"
)

var (
	browseURL      string
	browseCacheDir string
	browseView     string
	browseLegacy   bool
	browseNoCache  bool
	browseWait     time.Duration

	browseCmd = &cobra.Command{
		Use:   "browse",
		Short: "run the progressive-loading client against a server and print what it renders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := newBrowseRenderer(configs.GetConfig().Client)
			if err != nil {
				return err
			}
			defer r.Detach()

			return browse(cmd.Context(), cmd.OutOrStdout(), r)
		},
	}
)

func newBrowseRenderer(cfg configs.ClientConfig) (*client.Renderer, error) {
	if browseURL != "" {
		cfg.BaseURL = browseURL
	}

	if browseCacheDir != "" {
		cfg.CacheDir = browseCacheDir
	}

	var opts []client.APIOption
	if browseLegacy {
		opts = append(opts, client.WithLegacyRoutes())
	}

	fetcher, err := client.NewAPI(cfg, opts...)
	if err != nil {
		return nil, err
	}

	var cache *client.CatalogCache

	if !browseNoCache {
		store, err := client.NewFileStorage(cfg.CacheDir)
		if err != nil {
			return nil, err
		}

		cache = client.NewCatalogCache(store, client.WithTTL(cfg.CacheTTL))
	}

	return client.NewRenderer(fetcher, cache,
		client.WithPreloader(client.NewHTTPProber(fetcher.BaseURL(), fetcher.HTTPClient())),
		client.WithPreloadTimeout(cfg.PreloadTimeout),
	), nil
}

// browse 先输出网格，然后打开轮播（按 --view 或第一项），让每一项进入可视区域，
// 并按到达顺序输出详情.
func browse(ctx context.Context, out io.Writer, r *client.Renderer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := r.Load(ctx); err != nil {
		return fmt.Errorf("error loading portfolio: %w", err)
	}

	items := r.Items()

	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{strconv.Itoa(it.ID), it.Title, it.Type, it.Date, it.Src})
	}

	source := "network"
	if r.FromCache() {
		source = "cache"
	}

	fmt.Fprintln(out, renderTable([]string{"ID", "Title", "Type", "Date", "Src"}, rows, 0))
	fmt.Fprintf(out, "%d items from %s (session %s)\n", len(items), source, r.Session().ID)

	frag := client.Fragment{ID: items[0].ID}
	if browseView != "" {
		f, ok := client.ParseFragment(browseView)
		if !ok {
			return fmt.Errorf("invalid fragment %q", browseView)
		}

		frag = f
	}

	if err := r.Navigate(ctx, frag); err != nil {
		return err
	}

	ids := make([]int, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}

	r.Reveal(ids...)

	arrived := make(chan int, len(ids))

	for _, id := range ids {
		go func() {
			select {
			case <-r.Rendered(id):
				arrived <- id
			case <-ctx.Done():
			}
		}()
	}

	timeout := time.NewTimer(browseWait)
	defer timeout.Stop()

	for shown := 0; shown < len(ids); shown++ {
		select {
		case id := <-arrived:
			if d, ok := r.Detail(id); ok {
				printDetail(out, d)
			}
		case <-timeout.C:
			fmt.Fprintf(out, "%d of %d details still pending\n", len(ids)-shown, len(ids))
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fmt.Fprintf(out, "view: %s\n", r.Fragment())

	return nil
}

func printDetail(out io.Writer, d *api.PortfolioDetail) {
	fmt.Fprintf(out, "\n#%d %s [%s] %s\n", d.ID, d.Title, d.Type, d.Date)

	if d.Description != "" {
		fmt.Fprintf(out, "  %s\n", strings.ReplaceAll(d.Description, "\n", "\n  "))
	}

	if len(d.Tags) > 0 {
		fmt.Fprintf(out, "  tags: %s\n", strings.Join(d.Tags, " • "))
	}

	if d.Link != nil {
		fmt.Fprintf(out, "  link: %s\n", *d.Link)
	}

	for _, g := range d.Gallery {
		fmt.Fprintf(out, "  - %s\n", g)
	}
}

// registerBrowseCommands 注册 browse 命令.
func registerBrowseCommands() {
	browseCmd.Flags().StringVar(&browseURL, "url", "", "server base url (overrides client.base_url)")
	browseCmd.Flags().StringVar(&browseCacheDir, "cache-dir", "", "catalog cache directory (overrides client.cache_dir)")
	browseCmd.Flags().StringVar(&browseView, "view", "", "url fragment to open, e.g. '#view=3&fullscreen=true'")
	browseCmd.Flags().BoolVar(&browseLegacy, "legacy", false, "use get-portfolio.php / get-item-details.php routes")
	browseCmd.Flags().BoolVar(&browseNoCache, "no-cache", false, "skip the local catalog cache")
	browseCmd.Flags().DurationVar(&browseWait, "wait", 30*time.Second, "how long to wait for item details")

	rootCmd.AddCommand(browseCmd)
}
