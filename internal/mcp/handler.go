package mcp

import (
	"net/http"

	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/config"
	"github.com/bobmcallan/tahlil-portal/internal/session"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Handler is the HTTP handler for the MCP endpoint.
// It wraps mcp-go's StreamableHTTPServer and delegates to it.
type Handler struct {
	streamable *mcpserver.StreamableHTTPServer
	logger     *common.Logger
}

// NewHandler creates an MCP handler exposing analyze_symbol and get_version.
func NewHandler(analyzer session.Analyzer, logger *common.Logger) *Handler {
	mcpSrv := mcpserver.NewMCPServer(
		"tahlil-portal",
		config.GetVersion(),
		mcpserver.WithToolCapabilities(true),
	)

	toolCount := RegisterTools(mcpSrv, analyzer, logger)

	streamable := mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithStateLess(true),
	)

	if logger != nil {
		logger.Info().
			Int("tools", toolCount).
			Msg("MCP handler initialized")
	}

	return &Handler{
		streamable: streamable,
		logger:     logger,
	}
}

// ServeHTTP delegates to the mcp-go StreamableHTTPServer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.streamable.ServeHTTP(w, r)
}
