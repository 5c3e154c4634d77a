package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bobmcallan/tahlil-portal/internal/client"
	common "github.com/bobmcallan/tahlil-portal/internal/common"
	"github.com/bobmcallan/tahlil-portal/internal/models"
	"github.com/bobmcallan/tahlil-portal/internal/session"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
)

type stubAnalyzer struct {
	mu      sync.Mutex
	symbols []models.Symbol
	text    string
	err     error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, symbol models.Symbol) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols = append(s.symbols, symbol)
	return s.text, s.err
}

func (s *stubAnalyzer) calls() []models.Symbol {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Symbol(nil), s.symbols...)
}

func callRequest(args map[string]any) mcpgo.CallToolRequest {
	var req mcpgo.CallToolRequest
	req.Params.Name = "analyze_symbol"
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in result")
	}
	text, ok := result.Content[0].(mcpgo.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestAnalyzeToolHandler_Success(t *testing.T) {
	analyzer := &stubAnalyzer{text: "# Report\nBody"}
	handler := AnalyzeToolHandler(analyzer, common.NewSilentLogger())

	result, err := handler(t.Context(), callRequest(map[string]any{"symbol": " aapl "}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	if got := resultText(t, result); got != "# Report\nBody" {
		t.Errorf("expected report text, got %q", got)
	}

	calls := analyzer.calls()
	if len(calls) != 1 || calls[0] != "AAPL" {
		t.Errorf("expected one call with AAPL, got %v", calls)
	}
}

func TestAnalyzeToolHandler_EmptySymbol(t *testing.T) {
	for _, args := range []map[string]any{
		{"symbol": ""},
		{"symbol": "   "},
		{},
	} {
		analyzer := &stubAnalyzer{text: "unused"}
		handler := AnalyzeToolHandler(analyzer, nil)

		result, err := handler(t.Context(), callRequest(args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("args %v: expected error result", args)
		}
		if got := resultText(t, result); got != session.ValidationMessage {
			t.Errorf("args %v: expected validation message, got %q", args, got)
		}
		if n := len(analyzer.calls()); n != 0 {
			t.Errorf("args %v: expected no backend call, got %d", args, n)
		}
	}
}

func TestAnalyzeToolHandler_ServerMessage(t *testing.T) {
	analyzer := &stubAnalyzer{err: &client.RequestError{StatusCode: 500, Message: "حدث خطأ ما."}}
	handler := AnalyzeToolHandler(analyzer, common.NewSilentLogger())

	result, _ := handler(t.Context(), callRequest(map[string]any{"symbol": "XYZ"}))
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "حدث خطأ ما." {
		t.Errorf("expected server message, got %q", got)
	}
}

func TestAnalyzeToolHandler_TransportFailure(t *testing.T) {
	analyzer := &stubAnalyzer{err: &client.TransportError{Cause: context.DeadlineExceeded}}
	handler := AnalyzeToolHandler(analyzer, common.NewSilentLogger())

	result, _ := handler(t.Context(), callRequest(map[string]any{"symbol": "XYZ"}))
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != session.FallbackMessage {
		t.Errorf("expected fallback message, got %q", got)
	}
}

func TestVersionToolHandler(t *testing.T) {
	result, err := VersionToolHandler()(t.Context(), mcpgo.CallToolRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %v", result.Content)
	}

	var info map[string]string
	if err := json.Unmarshal([]byte(resultText(t, result)), &info); err != nil {
		t.Fatalf("failed to unmarshal version info: %v", err)
	}
	if info["version"] == "" {
		t.Error("expected version in response")
	}
}

// --- ServeHTTP (JSON-RPC over streamable HTTP) ---

func postRPC(t *testing.T, h http.Handler, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest("POST", "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON-RPC response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestHandler_ToolsList(t *testing.T) {
	h := NewHandler(&stubAnalyzer{}, common.NewSilentLogger())

	resp := postRPC(t, h, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	tools, _ := result["tools"].([]any)
	names := map[string]bool{}
	for _, raw := range tools {
		if tool, ok := raw.(map[string]any); ok {
			names[tool["name"].(string)] = true
		}
	}
	for _, want := range []string{"analyze_symbol", "get_version"} {
		if !names[want] {
			t.Errorf("expected tool %s in %v", want, names)
		}
	}
}

func TestHandler_CallAnalyzeSymbol(t *testing.T) {
	analyzer := &stubAnalyzer{text: "# Report"}
	h := NewHandler(analyzer, common.NewSilentLogger())

	resp := postRPC(t, h, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"analyze_symbol","arguments":{"symbol":"msft"}}}`)

	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp)
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("unexpected tool error: %v", result)
	}
	content, _ := result["content"].([]any)
	if len(content) == 0 {
		t.Fatal("expected content")
	}
	first := content[0].(map[string]any)
	if first["text"] != "# Report" {
		t.Errorf("expected report text, got %v", first["text"])
	}

	calls := analyzer.calls()
	if len(calls) != 1 || calls[0] != "MSFT" {
		t.Errorf("expected one call with MSFT, got %v", calls)
	}
}
