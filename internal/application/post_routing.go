package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
	"github.com/bnema/agentdeck/internal/ports"
)

func (t *turn) postRoutingEligible() bool {
	return !t.req.Internal && t.req.Source == domain.SourceChat
}

// postRoute runs the recovery and forced tool layer after the backend returns.
// Steps stop starting once ctx is cancelled.
func (t *turn) postRoute(ctx context.Context, text string, invokeErr error, primary domain.BackendID, decision domain.RoutingDecision) (string, error) {
	if invokeErr != nil && strings.TrimSpace(text) == "" {
		if out, ok := t.delegateInOrder(ctx, decision, primary); ok {
			t.o.log.Info("failover delegate recovered turn", "session", t.req.SessionID)
			text, invokeErr = out, nil
		}
	}
	if invokeErr != nil {
		return text, invokeErr
	}

	requests := ExtractToolCallRequests(text, domain.KnownTools)
	blocked := make(map[string]struct{})
	for _, call := range requests {
		if ctx.Err() != nil {
			return text, nil
		}
		if t.invoked(call.Tool) {
			continue
		}
		if reason := BlockConcreteInvocation(call.Tool, t.policy, t.settings); reason != "" {
			blocked[call.Tool] = struct{}{}
			t.warnBlocked(call.Tool, reason)
			continue
		}
		t.forceInvoke(ctx, call)
	}

	// A CLI primary is never asked to redo its own work as a delegate.
	if ctx.Err() == nil && decision.Intent == domain.IntentCoding && !t.delegated() {
		if out, ok := t.delegateInOrder(ctx, decision, primary); ok {
			text = joinSections(text, out)
		}
	}

	if ctx.Err() == nil && len(requests) == 0 && len(t.toolEventsSnapshot()) == 0 &&
		(decision.Intent == domain.IntentBrowsing || decision.Intent == domain.IntentResearch) {
		if out, ok := t.autoRoute(ctx, decision); ok {
			text = joinSections(text, out)
		}
	}

	missing := make([]string, 0)
	for _, call := range requests {
		if _, ok := blocked[call.Tool]; ok {
			continue
		}
		if !t.invoked(call.Tool) {
			missing = append(missing, call.Tool)
		}
	}
	if len(missing) > 0 {
		notice := fmt.Sprintf("Note: these requested tools were not run: %s.", strings.Join(missing, ", "))
		text = joinSections(text, notice)
		t.emit(domain.StreamEvent{
			Type:    domain.EventWarning,
			Text:    notice,
			Tools:   missing,
			Failure: domain.FailurePromisedToolNotInvoked,
		})
	}

	return text, nil
}

// delegateInOrder tries each enabled delegate in health-ranked order and stops at
// the first success. exclude skips the backend that already failed as primary.
func (t *turn) delegateInOrder(ctx context.Context, decision domain.RoutingDecision, exclude domain.BackendID) (string, bool) {
	candidates := make([]domain.BackendID, 0, len(decision.PreferredDelegates))
	for _, id := range decision.PreferredDelegates {
		if id == exclude {
			continue
		}
		if _, ok := t.delegateHandle(id); ok {
			candidates = append(candidates, id)
		}
	}

	for _, id := range t.o.health.Rank(candidates) {
		if ctx.Err() != nil {
			return "", false
		}
		handle, _ := t.delegateHandle(id)
		out, err := t.invokeHandle(ctx, handle, map[string]string{"task": t.req.Message})
		if err != nil {
			t.o.health.MarkFailure(id, err.Error())
			continue
		}
		t.o.health.MarkSuccess(id)
		return out, true
	}

	return "", false
}

func (t *turn) delegateHandle(id domain.BackendID) (ports.ToolHandle, bool) {
	tool, ok := domain.DelegateTool(id)
	if !ok || !t.policy.IsEnabled(tool) || t.tools == nil {
		return nil, false
	}
	return t.tools.Lookup(tool)
}

func (t *turn) forceInvoke(ctx context.Context, call domain.ToolCallRequest) {
	args := make(map[string]string, len(call.Args)+1)
	for key, value := range call.Args {
		args[key] = value
	}
	if call.Task != "" && args["task"] == "" {
		args["task"] = call.Task
	}

	if call.Tool == domain.ToolConnectorSend {
		t.sendConnector(ctx, args)
		return
	}

	if t.tools == nil {
		return
	}
	handle, ok := t.tools.Lookup(call.Tool)
	if !ok {
		return
	}

	delegate, isDelegate := domain.DelegateForTool(call.Tool)
	if isDelegate && args["task"] == "" {
		args["task"] = t.req.Message
	}

	_, err := t.invokeHandle(ctx, handle, args)
	if !isDelegate {
		return
	}
	if err != nil {
		t.o.health.MarkFailure(delegate, err.Error())
		return
	}
	t.o.health.MarkSuccess(delegate)
}

// sendConnector is best-effort: failures are logged and recorded on the tool event only.
func (t *turn) sendConnector(ctx context.Context, args map[string]string) {
	msg := ports.ConnectorMessage{
		ConnectorID: args["connector"],
		ChannelID:   firstNonEmpty(args["channel"], args["channel_id"]),
		Text:        firstNonEmpty(args["text"], args["message"], args["task"]),
	}
	if t.o.connector == nil || strings.TrimSpace(msg.Text) == "" {
		return
	}

	input := encodeArgs(args)
	t.recordCall(domain.ToolConnectorSend, input)
	if err := t.o.connector.Send(ctx, msg); err != nil {
		t.o.log.Debug("connector send failed", "session", t.req.SessionID, "channel", msg.ChannelID, "err", err)
		t.recordResult(domain.ToolConnectorSend, err.Error(), true)
		return
	}
	t.recordResult(domain.ToolConnectorSend, "sent", false)
}

func (t *turn) autoRoute(ctx context.Context, decision domain.RoutingDecision) (string, bool) {
	for _, tool := range decision.PreferredTools {
		if ctx.Err() != nil {
			return "", false
		}
		if !t.policy.IsEnabled(tool) || t.tools == nil {
			continue
		}
		handle, ok := t.tools.Lookup(tool)
		if !ok {
			continue
		}

		args := map[string]string{}
		switch tool {
		case domain.ToolBrowser, domain.ToolWebFetch:
			if decision.PrimaryURL == "" {
				continue
			}
			args["url"] = decision.PrimaryURL
		case domain.ToolWebSearch:
			args["query"] = t.req.Message
		default:
			continue
		}

		if out, err := t.invokeHandle(ctx, handle, args); err == nil {
			return out, true
		}
	}

	return "", false
}

// invokeHandle runs one tool directly and records it like a streamed call.
// Failures become a warning and never abort the remaining steps.
func (t *turn) invokeHandle(ctx context.Context, handle ports.ToolHandle, args map[string]string) (string, error) {
	name := domain.NormalizeToolName(handle.Name())
	t.recordCall(name, encodeArgs(args))

	out, err := handle.Invoke(ctx, args)
	if err != nil {
		t.recordResult(name, err.Error(), true)
		t.o.log.Warn("forced tool invocation failed", "session", t.req.SessionID, "tool", name, "err", err)
		t.emit(domain.StreamEvent{
			Type:    domain.EventWarning,
			Text:    fmt.Sprintf("%s failed: %v", name, err),
			Tool:    name,
			Tools:   []string{name},
			Failure: domain.FailureToolInvocation,
		})
		return "", err
	}

	t.recordResult(name, out, false)
	return out, nil
}

func (t *turn) recordCall(name, input string) {
	t.observe(domain.StreamEvent{Type: domain.EventToolCall, Tool: name, Input: input})
}

func (t *turn) recordResult(name, output string, isError bool) {
	t.observe(domain.StreamEvent{Type: domain.EventToolResult, Tool: name, Output: output, IsError: isError})
}

func (t *turn) warnBlocked(tool, reason string) {
	t.mu.Lock()
	_, already := t.warned[tool]
	t.warned[tool] = struct{}{}
	t.mu.Unlock()

	if already {
		return
	}
	t.emit(domain.StreamEvent{
		Type:    domain.EventWarning,
		Text:    "Tool call skipped: " + reason,
		Tool:    tool,
		Tools:   []string{tool},
		Failure: domain.FailurePolicyBlocked,
	})
}

func (t *turn) invoked(tool string) bool {
	name := domain.NormalizeToolName(tool)
	for _, event := range t.toolEventsSnapshot() {
		if event.Name == name {
			return true
		}
	}
	return false
}

func (t *turn) delegated() bool {
	for _, event := range t.toolEventsSnapshot() {
		if domain.IsDelegateTool(event.Name) {
			return true
		}
	}
	return false
}

func encodeArgs(args map[string]string) string {
	data, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(data)
}

func joinSections(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n\n")
}
