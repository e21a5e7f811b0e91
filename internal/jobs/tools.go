package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/jamesprial/crm-housekeeping/internal/safety"
	"github.com/jamesprial/crm-housekeeping/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// MCP tool names.
const (
	ToolHeartbeat      = "crm_heartbeat"
	ToolLowStockUpdate = "crm_low_stock_update"
	ToolOrderReminders = "crm_order_reminders"
)

// MutatingTools lists the tools that change CRM data and so require a
// confirmation token.
var MutatingTools = []string{ToolLowStockUpdate}

// toolDef describes how a job is exposed as an MCP tool.
type toolDef struct {
	name        string
	description string
	// confirmText is shown in the confirmation prompt for mutating tools.
	confirmText string
}

var toolDefs = map[string]toolDef{
	NameHeartbeat: {
		name:        ToolHeartbeat,
		description: "Record a CRM heartbeat and check that the GraphQL API answers the hello query. Appends to the heartbeat log.",
	},
	NameLowStockUpdate: {
		name:        ToolLowStockUpdate,
		description: "Run the updateLowStockProducts mutation and log every product it restocked. Requires confirmation.",
		confirmText: "This will run the updateLowStockProducts mutation, which changes stock levels in the CRM.",
	},
	NameOrderReminders: {
		name:        ToolOrderReminders,
		description: "Log a reminder line for every order placed within the lookback window.",
	},
}

// JobTools returns one tool registration per job. Jobs without a tool
// definition are skipped.
func JobTools(jobs []Job, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) []tools.Registration {
	regs := make([]tools.Registration, 0, len(jobs))
	for _, job := range jobs {
		def, ok := toolDefs[job.Name()]
		if !ok {
			continue
		}
		regs = append(regs, jobTool(job, def, confirm, audit))
	}
	return regs
}

func jobTool(job Job, def toolDef, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	needsConfirm := confirm != nil && confirm.NeedsConfirmation(def.name)

	opts := []mcp.ToolOption{mcp.WithDescription(def.description)}
	if needsConfirm {
		opts = append(opts, mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		))
	}
	tool := mcp.NewTool(def.name, opts...)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		if needsConfirm {
			token := req.GetString("confirmation_token", "")
			if !confirm.Confirm(def.name, token) {
				tools.LogAudit(audit, def.name, params, "confirmation requested", start)
				return tools.ConfirmPrompt(confirm, def.name, def.confirmText), nil
			}
			params["confirmed"] = true
		}

		res := job.Run(ctx)
		if !res.Succeeded {
			tools.LogAudit(audit, def.name, params, "error: "+res.Detail, start)
			return tools.ErrorResult(fmt.Sprintf("%s failed: %s", res.Name, res.Detail)), nil
		}

		tools.LogAudit(audit, def.name, params, "ok", start)
		return tools.JSONResult(res), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
