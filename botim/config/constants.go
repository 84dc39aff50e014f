package config

import "time"

// Colors
const (
	ErrorColor   = 0xFF0000
	SuccessColor = 0x00FF00
	InfoColor    = 0x0099FF
	WarningColor = 0xFFAA00
	DefaultColor = 0x2B2D31
)

// Pagination and listings
const (
	HistoryLimit       = 20
	HistoryPerPage     = 5
	LeaderboardLimit   = 10
	PendingOrdersLimit = 25
)

// Timeouts
const (
	CommandExecutionTimeout = 10 * time.Second
	SlowCommandThreshold    = 2 * time.Second
	CommandQueryTimeout     = 5 * time.Second
	SessionSweepInterval    = time.Minute
	ShutdownTimeout         = 10 * time.Second
)

// Notifications
const (
	NotifyQueueSize = 1024
	NotifyWorkers   = 4
)
