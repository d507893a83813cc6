package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/apresai/creatorpilot/internal/assistant"
	"github.com/apresai/creatorpilot/internal/fans"
	"github.com/apresai/creatorpilot/internal/persona"
)

const defaultFanID = "mcp"

// HandleSendMessage replies to a fan in persona.
func (h *Handlers) HandleSendMessage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.send_message")
	defer span.End()

	fanID, err := req.RequireString("fan_id")
	if err != nil {
		return toolError(span, err.Error())
	}
	message, err := req.RequireString("message")
	if err != nil || message == "" {
		return toolError(span, "message is required")
	}
	analyze := mcp.ParseBoolean(req, "analyze_sales", true)

	span.SetAttributes(attribute.String("fan_id", fanID), attribute.Bool("analyze_sales", analyze))
	result := h.asst.SendMessage(ctx, fanID, message, analyze)
	span.SetAttributes(attribute.Bool("sales_opportunity", result.SalesOpportunity != nil))
	return jsonResult(result)
}

// HandleGreeting writes a greeting.
func (h *Handlers) HandleGreeting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.greeting")
	defer span.End()

	fanID := mcp.ParseString(req, "fan_id", defaultFanID)
	tod := mcp.ParseString(req, "time_of_day", "")
	switch tod {
	case "", fans.Morning, fans.Afternoon, fans.Evening, fans.Night:
	default:
		return toolError(span, fmt.Sprintf("invalid time_of_day %q: must be morning, afternoon, evening or night", tod))
	}

	span.SetAttributes(attribute.String("fan_id", fanID), attribute.String("time_of_day", tod))
	return jsonResult(map[string]any{
		"fan_id":   fanID,
		"greeting": h.asst.SendGreeting(ctx, fanID, tod),
	})
}

// HandleSalesPitch writes a content pitch.
func (h *Handlers) HandleSalesPitch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.sales_pitch")
	defer span.End()

	message, err := req.RequireString("message")
	if err != nil {
		return toolError(span, err.Error())
	}
	name, err := req.RequireString("content_type")
	if err != nil {
		return toolError(span, err.Error())
	}
	ct, err := persona.ParseContentType(name)
	if err != nil {
		return toolError(span, err.Error())
	}
	fanID := mcp.ParseString(req, "fan_id", defaultFanID)

	span.SetAttributes(attribute.String("fan_id", fanID), attribute.String("content_type", string(ct)))
	pitch := h.asst.SalesPitch(ctx, fanID, message, ct, mcp.ParseString(req, "details", ""))
	return jsonResult(map[string]any{
		"fan_id":       fanID,
		"content_type": ct,
		"price":        h.asst.Persona().PriceFor(ct),
		"pitch":        pitch,
	})
}

// HandleSuggestContent analyses a message for a sale.
func (h *Handlers) HandleSuggestContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.suggest_content")
	defer span.End()

	message, err := req.RequireString("message")
	if err != nil {
		return toolError(span, err.Error())
	}
	sug := h.asst.AnalyzeSales(ctx, message, splitList(mcp.ParseString(req, "interests", "")))
	span.SetAttributes(
		attribute.String("content_type", string(sug.ContentType)),
		attribute.String("confidence", sug.Confidence),
	)
	return jsonResult(sug)
}

// HandleThankTip credits a tip and thanks the fan.
func (h *Handlers) HandleThankTip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.thank_tip")
	defer span.End()

	amount, err := req.RequireFloat("amount")
	if err != nil {
		return toolError(span, err.Error())
	}
	if amount <= 0 {
		return toolError(span, "amount must be positive")
	}
	fanID := mcp.ParseString(req, "fan_id", defaultFanID)

	span.SetAttributes(attribute.String("fan_id", fanID), attribute.Float64("amount", amount))
	thanks := h.asst.ThankForTip(ctx, fanID, amount, mcp.ParseString(req, "fan_name", ""))
	profile, _ := h.asst.Fans().Get(fanID)
	return jsonResult(map[string]any{
		"fan_id":     fanID,
		"message":    thanks,
		"total_tips": profile.TotalTips,
	})
}

// HandleEntertain writes a game, story, compliment reply or starter.
func (h *Handlers) HandleEntertain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.entertain")
	defer span.End()

	kind, err := req.RequireString("kind")
	if err != nil {
		return toolError(span, err.Error())
	}
	fanID := mcp.ParseString(req, "fan_id", defaultFanID)
	text := mcp.ParseString(req, "text", "")
	span.SetAttributes(attribute.String("fan_id", fanID), attribute.String("kind", kind))

	var out string
	switch kind {
	case "game":
		out = h.asst.Game(ctx, fanID, mcp.ParseString(req, "fan_name", ""))
	case "story":
		out = h.asst.Story(ctx, fanID, text)
	case "compliment":
		if text == "" {
			return toolError(span, "text is required for compliment")
		}
		out = h.asst.Compliment(ctx, fanID, text)
	case "starter":
		out = h.asst.Starter(ctx, fanID)
	default:
		return toolError(span, fmt.Sprintf("unknown kind %q: must be game, story, compliment or starter", kind))
	}
	return jsonResult(map[string]any{
		"fan_id":  fanID,
		"kind":    kind,
		"message": out,
	})
}

// HandleBroadcast sends one kind of message to several fans.
func (h *Handlers) HandleBroadcast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.broadcast")
	defer span.End()

	ids, err := req.RequireString("fan_ids")
	if err != nil {
		return toolError(span, err.Error())
	}
	fanIDs := splitList(ids)
	if len(fanIDs) == 0 {
		return toolError(span, "fan_ids must name at least one fan")
	}
	kind := mcp.ParseString(req, "kind", assistant.BroadcastGreeting)

	span.SetAttributes(attribute.String("kind", kind), attribute.Int("fan_count", len(fanIDs)))
	sent, err := h.asst.Broadcast(ctx, fanIDs, kind)
	if err != nil {
		return toolError(span, err.Error())
	}
	return jsonResult(map[string]any{
		"kind":     kind,
		"messages": sent,
		"count":    len(sent),
	})
}

// HandleUpdateFan merges fields into a fan profile.
func (h *Handlers) HandleUpdateFan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.update_fan")
	defer span.End()

	fanID, err := req.RequireString("fan_id")
	if err != nil {
		return toolError(span, err.Error())
	}
	span.SetAttributes(attribute.String("fan_id", fanID))

	args := req.GetArguments()
	var u fans.Update
	if _, ok := args["name"]; ok {
		v := mcp.ParseString(req, "name", "")
		u.Name = &v
	}
	if _, ok := args["is_subscriber"]; ok {
		v := mcp.ParseBoolean(req, "is_subscriber", false)
		u.IsSubscriber = &v
	}
	if _, ok := args["subscription_tier"]; ok {
		v := mcp.ParseString(req, "subscription_tier", "")
		u.SubscriptionTier = &v
	}
	if _, ok := args["interests"]; ok {
		u.Interests = splitList(mcp.ParseString(req, "interests", ""))
		if u.Interests == nil {
			u.Interests = []string{}
		}
	}
	if _, ok := args["notes"]; ok {
		v := mcp.ParseString(req, "notes", "")
		u.Notes = &v
	}

	profile := h.asst.UpdateProfile(fanID, u)
	if mcp.ParseBoolean(req, "purchased", false) {
		profile = h.asst.RecordPurchase(fanID)
	}
	return jsonResult(map[string]any{
		"profile": profile,
		"context": profile.Context(),
	})
}

// HandleFanMessages lists recorded exchanges with a fan.
func (h *Handlers) HandleFanMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.fan_messages")
	defer span.End()

	fanID, err := req.RequireString("fan_id")
	if err != nil {
		return toolError(span, err.Error())
	}
	entries, err := h.asst.History(ctx, fanID, mcp.ParseInt(req, "limit", 10))
	if err != nil {
		span.RecordError(err)
		return toolError(span, fmt.Sprintf("failed to read messages: %v", err))
	}
	span.SetAttributes(attribute.Int("result_count", len(entries)))
	return jsonResult(map[string]any{
		"fan_id":   fanID,
		"messages": entries,
		"count":    len(entries),
	})
}
