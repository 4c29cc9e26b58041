package application

import (
	"strings"

	"github.com/bnema/agentdeck/internal/domain"
)

// DefaultHeartbeatPrompt is sent when a heartbeat run carries no message of its own.
const DefaultHeartbeatPrompt = "Heartbeat check. Review the current mission and anything pending. " +
	"If nothing needs attention, reply with " + domain.HeartbeatSentinel + " only."

const sentinelDecoration = "*_`.!:- \t\r\n"

// ClassifyHeartbeat decides what to persist for a heartbeat response. The returned
// text is what should be stored: empty on suppress, the remainder on strip, the
// response unchanged on keep.
func ClassifyHeartbeat(text string, ackMaxChars int) (domain.HeartbeatClassification, string) {
	if ackMaxChars <= 0 {
		ackMaxChars = domain.DefaultHeartbeatAckMaxChars
	}

	trimmed := strings.TrimSpace(text)
	if strings.Trim(trimmed, sentinelDecoration) == domain.HeartbeatSentinel {
		return domain.HeartbeatSuppress, ""
	}
	if !strings.Contains(trimmed, domain.HeartbeatSentinel) {
		return domain.HeartbeatKeep, text
	}

	remainder := strings.ReplaceAll(trimmed, domain.HeartbeatSentinel, "")
	remainder = strings.TrimLeft(remainder, sentinelDecoration)
	remainder = strings.TrimRight(remainder, "*_` \t\r\n")
	if len([]rune(remainder)) <= ackMaxChars {
		return domain.HeartbeatSuppress, ""
	}

	return domain.HeartbeatStrip, remainder
}
