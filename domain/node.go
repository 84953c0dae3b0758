package domain

// NodeStats is the liveness payload a node publishes with every heartbeat.
type NodeStats struct {
	PID        int32
	Status     string
	CPUPercent float64
	RSSBytes   uint64
	Sessions   int
}
