package domain

// HeartbeatSentinel is the acknowledgment token a heartbeat run answers with when there is nothing to report.
const HeartbeatSentinel = "HEARTBEAT_OK"

const DefaultHeartbeatAckMaxChars = 300

type HeartbeatClassification string

const (
	HeartbeatSuppress HeartbeatClassification = "suppress"
	HeartbeatStrip    HeartbeatClassification = "strip"
	HeartbeatKeep     HeartbeatClassification = "keep"
)
