package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/kinbranch/internal/branches"
	"github.com/agentic-research/kinbranch/internal/genealogy"
)

var metricsAddr string

// newMCPServer exposes the branches and ancestors operations as MCP tools.
func newMCPServer(store genealogy.Store, e *branches.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"kinbranch",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("branches",
		mcp.WithDescription("Render the family branches of a surname as a JSON tree: one branch per earliest ancestor carrying the surname."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree (dataset) name")),
		mcp.WithString("surname", mcp.Description("Surname to draw; defaults to the surname of self")),
		mcp.WithString("self", mcp.Description("Xref of the individual whose ancestors are annotated with Sosa numbers")),
		mcp.WithBoolean("soundex_std", mcp.Description("Also match surnames sharing a Russell soundex code")),
		mcp.WithBoolean("soundex_dm", mcp.Description("Also match surnames sharing a Daitch-Mokotoff code")),
	), branchesTool(store, e))

	s.AddTool(mcp.NewTool("ancestors",
		mcp.WithDescription("List the direct-line ancestors of an individual, keyed by Sosa-Stradonitz number."),
		mcp.WithString("tree", mcp.Required(), mcp.Description("Tree (dataset) name")),
		mcp.WithString("self", mcp.Required(), mcp.Description("Xref of the root individual")),
	), ancestorsTool(store))

	return s
}

func branchesTool(store genealogy.Store, e *branches.Engine) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tree, err := req.RequireString("tree")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		p := branchesParams{
			Tree:    tree,
			Surname: req.GetString("surname", ""),
			Self:    req.GetString("self", ""),
			Std:     req.GetBool("soundex_std", false),
			DM:      req.GetBool("soundex_dm", false),
		}
		if p.Surname == "" && p.Self == "" {
			return mcp.NewToolResultError("one of surname or self is required"), nil
		}
		forest, err := runBranches(ctx, e, store, p)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(forest)
	}
}

func ancestorsTool(store genealogy.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tree, err := req.RequireString("tree")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		self, err := req.RequireString("self")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		entries, err := listAncestors(ctx, store, tree, self)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(entries)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the branches and ancestors tools over MCP (stdio)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, release, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		reg := prometheus.NewRegistry()
		e, err := newEngine(store, reg)
		if err != nil {
			return err
		}

		if metricsAddr != "" {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			srv := &http.Server{Addr: metricsAddr, Handler: mux}
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("metrics server failed", zap.Error(err))
				}
			}()
			defer func() { _ = srv.Close() }()
		}

		logger.Info("serving mcp on stdio", zap.String("store", cfg.Store.Path))
		return server.ServeStdio(newMCPServer(store, e))
	},
}

func init() {
	mcpCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.AddCommand(mcpCmd)
}
