package tui

import (
	"github.com/splax/synthteams/internal/domain"
	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/viewstate"
)

// SnapshotMsg carries a fresh copy of the deployment log.
type SnapshotMsg struct {
	Snapshot domain.Snapshot
}

// TrainResultMsg reports the outcome of a manual training request.
type TrainResultMsg struct {
	Result simulator.TrainResult
	Err    error
}

// FeedErrorMsg reports that the log could not be fetched.
type FeedErrorMsg struct {
	Err error
}

// SubscribeResultMsg reports the outcome of a waitlist submission.
type SubscribeResultMsg struct {
	Email   string
	Outcome viewstate.Outcome
	Err     error
}
