package domain

type RunSource string

const (
	SourceChat      RunSource = "chat"
	SourceConnector RunSource = "connector"
	SourceHeartbeat RunSource = "heartbeat"
	SourceFollowup  RunSource = "followup"
	SourceSchedule  RunSource = "schedule"
	SourceSystem    RunSource = "system"
)

func (s RunSource) Valid() bool {
	switch s {
	case SourceChat, SourceConnector, SourceHeartbeat, SourceFollowup, SourceSchedule, SourceSystem:
		return true
	default:
		return false
	}
}

// TouchesActivity reports whether a run of this source counts as human-initiated activity.
func (s RunSource) TouchesActivity() bool {
	return s != SourceHeartbeat && s != SourceFollowup
}
