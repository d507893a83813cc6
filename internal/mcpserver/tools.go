package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/progress"
	"github.com/apresai/creatorpilot/internal/recorder"
)

var tracer = otel.Tracer("creatorpilot-mcp")

func prop(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

func schema(required []string, props map[string]any) mcp.ToolInputSchema {
	return mcp.ToolInputSchema{Type: "object", Properties: props, Required: required}
}

// Handlers contains tool handler implementations. The tracker is not safe
// for concurrent use, so every access holds mu.
type Handlers struct {
	mu      sync.Mutex
	tracker *progress.Tracker
	file    string

	asst *assistant.Assistant
	rec  recorder.Recorder
	log  *slog.Logger
}

// NewHandlers creates tool handlers around a restored tracker.
func NewHandlers(tracker *progress.Tracker, file string, asst *assistant.Assistant, rec recorder.Recorder, logger *slog.Logger) *Handlers {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Handlers{tracker: tracker, file: file, asst: asst, rec: rec, log: logger}
}

// Tools returns every tool definition paired with its handler.
func (h *Handlers) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.Tool{
				Name:        "progress_report",
				Description: "Get this week's progress report: per-metric percentages and status tiers, overall status, revenue, self-check status and recommendations.",
				InputSchema: schema(nil, map[string]any{}),
			},
			Handler: h.HandleProgressReport,
		},
		{
			Tool: mcp.Tool{
				Name:        "update_content",
				Description: "Add to a weekly content counter. The new total is saved immediately.",
				InputSchema: schema([]string{"metric", "amount"}, map[string]any{
					"metric": prop("string", "One of feed_posts, ppv_drops, story_posts, rest_days"),
					"amount": prop("number", "Amount to add (may be fractional or negative)"),
				}),
			},
			Handler: h.HandleUpdateContent,
		},
		{
			Tool: mcp.Tool{
				Name:        "update_revenue",
				Description: "Add revenue earned this week.",
				InputSchema: schema([]string{"amount"}, map[string]any{
					"amount": prop("number", "Revenue in dollars to add"),
				}),
			},
			Handler: h.HandleUpdateRevenue,
		},
		{
			Tool: mcp.Tool{
				Name:        "update_subscribers",
				Description: "Add new subscribers gained this week.",
				InputSchema: schema([]string{"count"}, map[string]any{
					"count": prop("integer", "Number of new subscribers to add"),
				}),
			},
			Handler: h.HandleUpdateSubscribers,
		},
		{
			Tool: mcp.Tool{
				Name:        "update_customs",
				Description: "Add completed custom content requests.",
				InputSchema: schema([]string{"count"}, map[string]any{
					"count": prop("integer", "Number of completed customs to add"),
				}),
			},
			Handler: h.HandleUpdateCustoms,
		},
		{
			Tool: mcp.Tool{
				Name:        "complete_self_check",
				Description: "Answer the weekly self-check. All four answers are replaced.",
				InputSchema: schema([]string{"protected_energy", "reinforced_value", "stayed_calm", "felt_intentional"}, map[string]any{
					"protected_energy": prop("boolean", "Did you protect your energy this week?"),
					"reinforced_value": prop("boolean", "Did you reinforce your value?"),
					"stayed_calm":      prop("boolean", "Did you stay calm?"),
					"felt_intentional": prop("boolean", "Did the week feel intentional?"),
				}),
			},
			Handler: h.HandleCompleteSelfCheck,
		},
		{
			Tool: mcp.Tool{
				Name:        "save_progress",
				Description: "Save the week and add a snapshot of the report to report history.",
				InputSchema: schema(nil, map[string]any{}),
			},
			Handler: h.HandleSaveProgress,
		},
		{
			Tool: mcp.Tool{
				Name:        "reset_week",
				Description: "Close out the week: record its final report in history, then zero all counters and clear the self-check.",
				InputSchema: schema(nil, map[string]any{}),
			},
			Handler: h.HandleResetWeek,
		},
		{
			Tool: mcp.Tool{
				Name:        "report_history",
				Description: "List saved progress reports, newest first.",
				InputSchema: schema(nil, map[string]any{
					"limit": map[string]any{"type": "integer", "description": "Maximum number of reports (default 10)", "default": 10},
				}),
			},
			Handler: h.HandleReportHistory,
		},
		{
			Tool: mcp.Tool{
				Name:        "send_message",
				Description: "Reply to a fan message in persona. Optionally checks the message for a content sales opportunity.",
				InputSchema: schema([]string{"fan_id", "message"}, map[string]any{
					"fan_id":        prop("string", "Fan identifier"),
					"message":       prop("string", "The fan's message"),
					"analyze_sales": map[string]any{"type": "boolean", "description": "Also look for a sales opportunity", "default": true},
				}),
			},
			Handler: h.HandleSendMessage,
		},
		{
			Tool: mcp.Tool{
				Name:        "greeting",
				Description: "Write a daily greeting for a fan.",
				InputSchema: schema(nil, map[string]any{
					"fan_id":      prop("string", "Fan identifier (default mcp)"),
					"time_of_day": prop("string", "morning, afternoon, evening or night (default: current time)"),
				}),
			},
			Handler: h.HandleGreeting,
		},
		{
			Tool: mcp.Tool{
				Name:        "sales_pitch",
				Description: "Write a pitch for a piece of content in reply to a fan message.",
				InputSchema: schema([]string{"message", "content_type"}, map[string]any{
					"fan_id":       prop("string", "Fan identifier (default mcp)"),
					"message":      prop("string", "The fan's message"),
					"content_type": prop("string", "premium_photo, premium_video, custom_photo, custom_video or exclusive_message"),
					"details":      prop("string", "Extra details about the content"),
				}),
			},
			Handler: h.HandleSalesPitch,
		},
		{
			Tool: mcp.Tool{
				Name:        "suggest_content",
				Description: "Check a fan message for a buying signal and suggest content with a price.",
				InputSchema: schema([]string{"message"}, map[string]any{
					"message":   prop("string", "The fan's message"),
					"interests": prop("string", "Comma-separated fan interests"),
				}),
			},
			Handler: h.HandleSuggestContent,
		},
		{
			Tool: mcp.Tool{
				Name:        "thank_tip",
				Description: "Thank a fan for a tip and credit it to their profile.",
				InputSchema: schema([]string{"amount"}, map[string]any{
					"fan_id":   prop("string", "Fan identifier (default mcp)"),
					"amount":   prop("number", "Tip amount in dollars"),
					"fan_name": prop("string", "Fan display name"),
				}),
			},
			Handler: h.HandleThankTip,
		},
		{
			Tool: mcp.Tool{
				Name:        "entertain",
				Description: "Write a game idea, story teaser, compliment response or conversation starter.",
				InputSchema: schema([]string{"kind"}, map[string]any{
					"fan_id":   prop("string", "Fan identifier (default mcp)"),
					"kind":     prop("string", "game, story, compliment or starter"),
					"text":     prop("string", "Story theme or the compliment to answer"),
					"fan_name": prop("string", "Fan display name for games"),
				}),
			},
			Handler: h.HandleEntertain,
		},
		{
			Tool: mcp.Tool{
				Name:        "broadcast",
				Description: "Send the same kind of message to several fans.",
				InputSchema: schema([]string{"fan_ids"}, map[string]any{
					"fan_ids": prop("string", "Comma-separated fan identifiers"),
					"kind":    map[string]any{"type": "string", "description": "greeting, starter or game", "default": "greeting"},
				}),
			},
			Handler: h.HandleBroadcast,
		},
		{
			Tool: mcp.Tool{
				Name:        "update_fan",
				Description: "Update a fan profile. Omitted fields are left unchanged.",
				InputSchema: schema([]string{"fan_id"}, map[string]any{
					"fan_id":            prop("string", "Fan identifier"),
					"name":              prop("string", "Display name"),
					"is_subscriber":     prop("boolean", "Whether the fan is subscribed"),
					"subscription_tier": prop("string", "Subscription tier"),
					"interests":         prop("string", "Comma-separated interests (replaces the list)"),
					"notes":             prop("string", "Free-form notes"),
					"purchased":         prop("boolean", "Count one content purchase"),
				}),
			},
			Handler: h.HandleUpdateFan,
		},
		{
			Tool: mcp.Tool{
				Name:        "fan_messages",
				Description: "List recorded exchanges with a fan, oldest first.",
				InputSchema: schema([]string{"fan_id"}, map[string]any{
					"fan_id": prop("string", "Fan identifier"),
					"limit":  map[string]any{"type": "integer", "description": "Maximum number of exchanges (default 10)", "default": 10},
				}),
			},
			Handler: h.HandleFanMessages,
		},
	}
}

// HandleProgressReport returns the current report.
func (h *Handlers) HandleProgressReport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.progress_report")
	defer span.End()

	h.mu.Lock()
	report := h.tracker.BuildReport()
	check := h.tracker.SelfCheck()
	h.mu.Unlock()

	span.SetAttributes(
		attribute.String("overall_status", string(report.OverallStatus)),
		attribute.Float64("avg_progress", report.AvgProgress),
	)
	return jsonResult(map[string]any{
		"report":     report,
		"self_check": check,
	})
}

// mutate applies fn to the tracker and saves the week.
func (h *Handlers) mutate(ctx context.Context, span trace.Span, fn func(t *progress.Tracker)) (*mcp.CallToolResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fn(h.tracker)
	report := h.tracker.BuildReport()
	if err := h.tracker.Save(h.file); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		h.log.ErrorContext(ctx, "Failed to save progress", "file", h.file, "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("updated but not saved: %v", err)), nil
	}

	if auth := AuthFromContext(ctx); auth.Authenticated {
		span.SetAttributes(attribute.String("key_id", auth.KeyID))
	}
	span.SetAttributes(
		attribute.String("overall_status", string(report.OverallStatus)),
		attribute.Float64("avg_progress", report.AvgProgress),
	)
	return jsonResult(report)
}

func toolError(span trace.Span, msg string) (*mcp.CallToolResult, error) {
	span.SetStatus(codes.Error, msg)
	return mcp.NewToolResultError(msg), nil
}

// HandleUpdateContent adds to a content counter.
func (h *Handlers) HandleUpdateContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.update_content")
	defer span.End()

	name, err := req.RequireString("metric")
	if err != nil {
		return toolError(span, err.Error())
	}
	metric, err := progress.ParseMetric(name)
	if err != nil {
		return toolError(span, err.Error())
	}
	amount, err := req.RequireFloat("amount")
	if err != nil {
		return toolError(span, err.Error())
	}
	if err := progress.CheckAmount(amount); err != nil {
		return toolError(span, err.Error())
	}

	span.SetAttributes(attribute.String("metric", string(metric)), attribute.Float64("amount", amount))
	h.log.InfoContext(ctx, "Content updated", "metric", metric, "amount", amount)
	return h.mutate(ctx, span, func(t *progress.Tracker) {
		t.UpdateContent(metric, amount)
	})
}

// HandleUpdateRevenue adds weekly revenue.
func (h *Handlers) HandleUpdateRevenue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.update_revenue")
	defer span.End()

	amount, err := req.RequireFloat("amount")
	if err != nil {
		return toolError(span, err.Error())
	}
	if err := progress.CheckAmount(amount); err != nil {
		return toolError(span, err.Error())
	}
	span.SetAttributes(attribute.Float64("amount", amount))
	return h.mutate(ctx, span, func(t *progress.Tracker) {
		t.UpdateRevenue(amount)
	})
}

// HandleUpdateSubscribers adds new subscribers.
func (h *Handlers) HandleUpdateSubscribers(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.update_subscribers")
	defer span.End()

	count, err := req.RequireInt("count")
	if err != nil {
		return toolError(span, err.Error())
	}
	span.SetAttributes(attribute.Int("count", count))
	return h.mutate(ctx, span, func(t *progress.Tracker) {
		t.UpdateSubscribers(count)
	})
}

// HandleUpdateCustoms adds completed customs.
func (h *Handlers) HandleUpdateCustoms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.update_customs")
	defer span.End()

	count, err := req.RequireInt("count")
	if err != nil {
		return toolError(span, err.Error())
	}
	span.SetAttributes(attribute.Int("count", count))
	return h.mutate(ctx, span, func(t *progress.Tracker) {
		t.UpdateCustoms(count)
	})
}

// HandleCompleteSelfCheck records the four self-check answers.
func (h *Handlers) HandleCompleteSelfCheck(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.complete_self_check")
	defer span.End()

	var answers [4]bool
	for i, key := range []string{"protected_energy", "reinforced_value", "stayed_calm", "felt_intentional"} {
		v, err := req.RequireBool(key)
		if err != nil {
			return toolError(span, err.Error())
		}
		answers[i] = v
	}
	return h.mutate(ctx, span, func(t *progress.Tracker) {
		t.CompleteSelfCheck(answers[0], answers[1], answers[2], answers[3])
	})
}

// HandleSaveProgress saves and records a report snapshot.
func (h *Handlers) HandleSaveProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.save_progress")
	defer span.End()

	h.mu.Lock()
	defer h.mu.Unlock()

	report := h.tracker.BuildReport()
	if err := h.tracker.Save(h.file); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to save progress: %v", err)), nil
	}
	if err := h.rec.RecordReport(ctx, report); err != nil {
		h.log.WarnContext(ctx, "Could not record report", "error", err)
	}

	h.log.InfoContext(ctx, "Progress saved", "file", h.file, "overall_status", report.OverallStatus)
	return jsonResult(map[string]any{
		"file":   h.file,
		"report": report,
	})
}

// ResetWeek saves a zeroed week, then records the closing report. The
// closing report is returned. A failed save leaves the current week intact.
func (h *Handlers) ResetWeek(ctx context.Context) (progress.Report, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	closing := h.tracker.BuildReport()
	fresh := h.tracker.Clone()
	fresh.Reset()
	if err := fresh.Save(h.file); err != nil {
		return closing, fmt.Errorf("save progress: %w", err)
	}
	h.tracker = fresh
	if err := h.rec.RecordReport(ctx, closing); err != nil {
		h.log.WarnContext(ctx, "Could not record closing report", "error", err)
	}
	h.log.InfoContext(ctx, "Week reset", "closing_status", closing.OverallStatus, "closing_avg", closing.AvgProgress)
	return closing, nil
}

// HandleResetWeek archives the current week and starts a new one.
func (h *Handlers) HandleResetWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.reset_week")
	defer span.End()

	closing, err := h.ResetWeek(ctx)
	if err != nil {
		span.RecordError(err)
		return toolError(span, fmt.Sprintf("week not reset: %v", err))
	}

	h.mu.Lock()
	report := h.tracker.BuildReport()
	h.mu.Unlock()
	return jsonResult(map[string]any{
		"closing": closing,
		"report":  report,
	})
}

// HandleReportHistory lists stored reports.
func (h *Handlers) HandleReportHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.report_history")
	defer span.End()

	limit := mcp.ParseInt(req, "limit", 10)
	rows, err := h.rec.Reports(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list reports failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}

	span.SetAttributes(attribute.Int("result_count", len(rows)))
	reports := make([]map[string]any, 0, len(rows))
	for _, r := range rows {
		reports = append(reports, map[string]any{
			"id":                r.ID,
			"timestamp":         r.Timestamp,
			"overall_status":    r.OverallStatus,
			"avg_progress":      r.AvgProgress,
			"weekly_revenue":    r.WeeklyRevenue,
			"new_subscribers":   r.NewSubscribers,
			"self_check_status": r.SelfCheckStatus,
		})
	}
	return jsonResult(map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
