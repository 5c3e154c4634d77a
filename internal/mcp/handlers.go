package mcp

import (
	"context"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/models"
	"github.com/bobmcallan/tahlil-portal/internal/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// AnalyzeToolHandler returns the handler for analyze_symbol. The symbol is
// normalized and validated the same way as the report page; backend failures
// become error results carrying the user-facing message.
func AnalyzeToolHandler(analyzer session.Analyzer, logger *common.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		symbol := models.NormalizeSymbol(r.GetString("symbol", "")).Trimmed()
		if symbol.IsEmpty() {
			return errorResult(session.ValidationMessage), nil
		}

		text, err := analyzer.Analyze(ctx, symbol)
		if err != nil {
			msg, kind := session.FailureMessage(err)
			if logger != nil {
				logger.Warn().
					Str("symbol", symbol.String()).
					Str("kind", string(kind)).
					Str("error", err.Error()).
					Msg("analyze_symbol failed")
			}
			return errorResult(msg), nil
		}

		return mcp.NewToolResultText(text), nil
	}
}
