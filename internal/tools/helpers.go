// Package tools provides shared helper utilities for MCP tool handlers.
package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jamesprial/crm-housekeeping/internal/safety"
	"github.com/mark3labs/mcp-go/mcp"
)

// JSONResult marshals v to indented JSON and returns an mcp.CallToolResult.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultText(fmt.Sprintf("error marshaling result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// ErrorResult returns an mcp.CallToolResult flagged as an error.
func ErrorResult(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("error: %s", msg))
}

// LogAudit logs a tool invocation to the audit logger, silently ignoring a nil logger.
func LogAudit(audit *safety.AuditLogger, toolName string, params map[string]any, result string, start time.Time) {
	if audit == nil {
		return
	}
	_ = audit.Log(safety.AuditEntry{
		Timestamp: start,
		Tool:      toolName,
		Params:    params,
		Result:    result,
		Duration:  time.Since(start),
	})
}

// ConfirmPrompt issues a confirmation token for toolName and returns the
// prompt telling the caller how to proceed. If no token can be issued the
// result is an error and the tool cannot be confirmed.
func ConfirmPrompt(confirm *safety.ConfirmationTracker, toolName, description string) *mcp.CallToolResult {
	token, err := confirm.RequestConfirmation(toolName)
	if err != nil {
		return ErrorResult(fmt.Sprintf("cannot confirm %s: %v", toolName, err))
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Confirmation required for %s.\n\n%s\n\nTo proceed, call %s again with confirmation_token=%q within 5 minutes.",
		toolName, description, toolName, token,
	))
}
