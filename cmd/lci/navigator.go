package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/standardbeagle/lci/internal/daemon"
	"github.com/standardbeagle/lci/internal/navclient"
	"github.com/standardbeagle/lci/internal/types"

	"github.com/urfave/cli/v2"
)

// defaultCodexHome resolves the per-user state root NAVIGATOR_LAUNCHER
// spawns and clients poll, honoring $CODEX_HOME (spec section 6).
func defaultCodexHome(c *cli.Context) string {
	if home := c.String("codex-home"); home != "" {
		return home
	}
	if home := os.Getenv("CODEX_HOME"); home != "" {
		return home
	}
	dir, err := os.UserHomeDir()
	if err != nil {
		return ".codex"
	}
	return filepath.Join(dir, ".codex")
}

func navigatorProjectRoot(c *cli.Context) (string, error) {
	root := c.String("project-root")
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

// navigatorDaemonCommand implements the "navigator-daemon" subcommand
// (spec section 6): the long-lived per-workspace process NavigatorClient
// spawns when no daemon answers daemon.json's recorded port.
func navigatorDaemonCommand() *cli.Command {
	return &cli.Command{
		Name:   "navigator-daemon",
		Usage:  "Run the navigator daemon in the foreground for one workspace",
		Hidden: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project-root", Usage: "Workspace root to index", Value: "."},
			&cli.StringFlag{Name: "codex-home", Usage: "Override CODEX_HOME"},
		},
		Action: func(c *cli.Context) error {
			root, err := navigatorProjectRoot(c)
			if err != nil {
				return err
			}
			codexHome := defaultCodexHome(c)

			cfg, err := loadConfigWithOverrides(c)
			if err != nil {
				return err
			}
			cfg.Project.Root = root

			d, err := daemon.New(cfg, codexHome)
			if err != nil {
				return fmt.Errorf("create navigator daemon: %w", err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if err := d.Start(ctx); err != nil {
				return fmt.Errorf("start navigator daemon: %w", err)
			}
			fmt.Printf("navigator daemon listening on 127.0.0.1:%d for %s\n", d.Port(), root)

			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return d.Shutdown(shutdownCtx)
		},
	}
}

// navigatorCommand groups the navigator-adjacent client subcommands:
// search, open, snippet, atlas, doctor, facet (spec section 6).
func navigatorCommand() *cli.Command {
	return &cli.Command{
		Name:  "navigator",
		Usage: "Query a navigator daemon (spawning one if needed)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project-root", Usage: "Workspace root", Value: "."},
			&cli.StringFlag{Name: "codex-home", Usage: "Override CODEX_HOME"},
			&cli.StringFlag{Name: "format", Usage: "json|text|ndjson", Value: "text"},
		},
		Subcommands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Run a search against the navigator index",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20},
					&cli.BoolFlag{Name: "recent"},
					&cli.BoolFlag{Name: "tests"},
					&cli.StringFlag{Name: "lang"},
					&cli.StringFlag{Name: "refine", Usage: "query_id to refine from"},
					&cli.BoolFlag{Name: "with-refs"},
					&cli.BoolFlag{Name: "diagnostics-only"},
				},
				Action: navigatorSearchAction,
			},
			{
				Name:      "open",
				Usage:     "Open a byte/line range of a file through the daemon",
				ArgsUsage: "<path> <start-line> <end-line>",
				Action:    navigatorOpenAction,
			},
			{
				Name:      "snippet",
				Usage:     "Fetch a line-anchored snippet with surrounding context",
				ArgsUsage: "<path> <line>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "before", Value: 2},
					&cli.IntFlag{Name: "after", Value: 2},
				},
				Action: navigatorSnippetAction,
			},
			{
				Name:   "atlas",
				Usage:  "Print the workspace atlas summary",
				Action: navigatorAtlasAction,
			},
			{
				Name:   "doctor",
				Usage:  "Print daemon-wide health diagnostics",
				Action: navigatorDoctorAction,
			},
			{
				Name:  "facet",
				Usage: "Set the auto-facet chain depth cap",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "depth", Value: -1, Usage: "new auto-facet max depth; omit to read current"},
				},
				Action: navigatorFacetAction,
			},
		},
	}
}

func navigatorClient(c *cli.Context) (*navclient.Client, context.Context, error) {
	root, err := navigatorProjectRoot(c)
	if err != nil {
		return nil, nil, err
	}
	ctx := context.Background()
	client, err := navclient.New(ctx, navclient.Options{
		ProjectRoot: root,
		CodexHome:   defaultCodexHome(c),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to navigator daemon: %w", err)
	}
	return client, ctx, nil
}

func navigatorSearchAction(c *cli.Context) error {
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}

	filters := map[string]string{}
	if c.Bool("tests") {
		filters["category"] = "tests"
	}
	if lang := c.String("lang"); lang != "" {
		filters["language"] = lang
	}

	req := navclient.SearchRequest{
		Query:     c.Args().First(),
		Limit:     c.Int("limit"),
		Filters:   filters,
		WithRefs:  c.Bool("with-refs"),
		Refine:    c.String("refine"),
	}
	if c.Bool("recent") {
		req.Profiles = append(req.Profiles, "recent")
	}

	format := c.String("format")
	if format == "ndjson" || c.Bool("diagnostics-only") {
		errStop := fmt.Errorf("diagnostics-only: stop after first frame")
		err := client.SearchWithEventHandler(ctx, req, func(ev navclient.StreamEvent) error {
			fmt.Printf("%s: %s\n", ev.Event, string(ev.Data))
			if c.Bool("diagnostics-only") && ev.Event == "diagnostics" {
				return errStop
			}
			return nil
		})
		if err == errStop {
			return nil
		}
		return err
	}

	resp, err := client.Search(ctx, req)
	if err != nil {
		return err
	}
	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	fmt.Printf("query_id: %s\n", resp.QueryID)
	for _, hit := range resp.Hits {
		fmt.Printf("%s:%d  %s (%s)  score=%.2f\n", hit.Path, hit.Line, hit.Name, hit.Kind, hit.Score)
	}
	for _, hint := range resp.Hints {
		fmt.Printf("hint: %s\n", hint)
	}
	return nil
}

func navigatorOpenAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("usage: navigator open <path> <start-line> <end-line>")
	}
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}
	start, err := parseLineArg(c.Args().Get(1))
	if err != nil {
		return err
	}
	end, err := parseLineArg(c.Args().Get(2))
	if err != nil {
		return err
	}
	lines, err := client.Open(ctx, c.Args().First(), start, end)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func navigatorSnippetAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: navigator snippet <path> <line>")
	}
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}
	line, err := parseLineArg(c.Args().Get(1))
	if err != nil {
		return err
	}
	lines, err := client.Snippet(ctx, c.Args().First(), line, c.Int("before"), c.Int("after"))
	if err != nil {
		return err
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	return nil
}

func navigatorAtlasAction(c *cli.Context) error {
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}
	atlas, err := client.Atlas(ctx)
	if err != nil {
		return err
	}
	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(atlas)
	}
	printAtlasNode(atlas.Root, 0)
	return nil
}

func printAtlasNode(node *types.AtlasNode, depth int) {
	if node == nil {
		return
	}
	fmt.Printf("%s%s (%s) files=%d symbols=%d loc=%d\n",
		strings.Repeat("  ", depth), node.Name, node.Kind, node.FileCount, node.SymbolCount, node.LOC)
	for _, child := range node.Children {
		printAtlasNode(child, depth+1)
	}
}

func navigatorDoctorAction(c *cli.Context) error {
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}
	result, err := client.Doctor(ctx)
	if err != nil {
		return err
	}
	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	fmt.Printf("risk: %s\n", result.Risk)
	fmt.Printf("ever_built: %v\n", result.EverBuilt)
	fmt.Printf("last_ingest: %s\n", result.LastIngestAgo)
	fmt.Printf("queries: %d  fallbacks: %d  workspaces: %d\n", result.QueryCount, result.FallbackCount, result.Workspaces)
	return nil
}

func navigatorFacetAction(c *cli.Context) error {
	client, ctx, err := navigatorClient(c)
	if err != nil {
		return err
	}
	depth, err := client.SetAutoFacetMaxDepth(ctx, c.Int("depth"))
	if err != nil {
		return err
	}
	fmt.Printf("auto_facet_max_depth: %d\n", depth)
	return nil
}

func parseLineArg(s string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid line number %q: %w", s, err)
	}
	return n, nil
}
