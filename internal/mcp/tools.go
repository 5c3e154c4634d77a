package mcp

import (
	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// AnalyzeTool returns the mcp.Tool definition for analyze_symbol.
func AnalyzeTool() mcp.Tool {
	return mcp.NewTool("analyze_symbol",
		mcp.WithDescription("Generate the markdown analysis report for a stock ticker symbol."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Ticker symbol, e.g. AAPL. Case-insensitive."),
		),
	)
}

// RegisterTools registers the portal's MCP tools and returns how many were added.
func RegisterTools(s *server.MCPServer, analyzer session.Analyzer, logger *common.Logger) int {
	s.AddTool(AnalyzeTool(), AnalyzeToolHandler(analyzer, logger))
	s.AddTool(VersionTool(), VersionToolHandler())
	return 2
}
