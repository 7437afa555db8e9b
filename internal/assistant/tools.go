// Package assistant exposes the audit query operations as function tools for
// an external conversational agent.
package assistant

import (
	"encoding/json"
	"strings"

	"araudit/internal/ledger"
)

const (
	ToolAuditSummary    = "getAuditSummary"
	ToolAgingReport     = "getAgingReport"
	ToolAnomalies       = "getAnomalies"
	ToolCustomerDetails = "getCustomerDetails"
)

type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

type Schema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

type FunctionDeclaration struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

type FunctionCall struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type FunctionResponse struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Response ResponseBody `json:"response"`
}

type ResponseBody struct {
	Result any `json:"result"`
}

type toolError struct {
	Error string `json:"error"`
}

func noParams() Schema {
	return Schema{Type: "object", Properties: map[string]Property{}}
}

// Declarations lists the tools in the order they are offered to the agent.
func Declarations() []FunctionDeclaration {
	return []FunctionDeclaration{
		{
			Name:        ToolAuditSummary,
			Description: "Get the high-level audit summary: total receivables, total overdue, DSO and risk score.",
			Parameters:  noParams(),
		},
		{
			Name:        ToolAgingReport,
			Description: "Get the receivables aging schedule (current, 1-30, 31-60, 61-90, over 90 days).",
			Parameters:  noParams(),
		},
		{
			Name:        ToolAnomalies,
			Description: "Get detected data anomalies, fraud risks and reconciliation errors.",
			Parameters:  noParams(),
		},
		{
			Name:        ToolCustomerDetails,
			Description: "Get invoices and total outstanding for customers whose name contains the given text.",
			Parameters: Schema{
				Type:       "object",
				Properties: map[string]Property{"name": {Type: "string", Description: "Customer name"}},
				Required:   []string{"name"},
			},
		},
	}
}

// Dispatch answers every call against idx. A failing call yields an error
// result for that call only.
func Dispatch(idx *ledger.Index, calls []FunctionCall) []FunctionResponse {
	out := make([]FunctionResponse, 0, len(calls))
	for _, call := range calls {
		out = append(out, FunctionResponse{
			ID:       call.ID,
			Name:     call.Name,
			Response: ResponseBody{Result: invoke(idx, call)},
		})
	}
	return out
}

func invoke(idx *ledger.Index, call FunctionCall) any {
	switch call.Name {
	case ToolAuditSummary:
		return idx.Summary()
	case ToolAgingReport:
		return idx.Aging()
	case ToolAnomalies:
		return idx.Anomalies()
	case ToolCustomerDetails:
		var args struct {
			Name *string `json:"name"`
		}
		if len(call.Args) > 0 {
			if err := json.Unmarshal(call.Args, &args); err != nil {
				return toolError{Error: "invalid arguments: " + err.Error()}
			}
		}
		if args.Name == nil || strings.TrimSpace(*args.Name) == "" {
			return toolError{Error: "name is required"}
		}
		return idx.CustomerDetails(*args.Name)
	default:
		return toolError{Error: "unknown function"}
	}
}
