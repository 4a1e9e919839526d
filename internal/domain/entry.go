package domain

import "time"

// MaxSteps is the number of training steps an entry reveals before deploying.
const MaxSteps = 3

// Phase describes where an entry sits in its training lifecycle.
type Phase string

const (
	PhaseEmpty     Phase = "empty"
	PhaseRevealing Phase = "revealing"
	PhaseDeployed  Phase = "deployed"
)

// Stats are the synthetic savings attached to a deployed agent.
type Stats struct {
	FTEDelta       int
	SavingsPerYear int
}

// Entry is one simulated agent moving through training and deployment.
type Entry struct {
	ID          int64
	AgentName   string
	Steps       []string
	CurrentStep int
	Deployed    bool
	Stats       *Stats
	Manual      bool
	CreatedAt   time.Time
	DeployedAt  *time.Time
}

// Phase reports the lifecycle phase derived from steps and the deployed flag.
func (e Entry) Phase() Phase {
	switch {
	case e.Deployed:
		return PhaseDeployed
	case len(e.Steps) == 0:
		return PhaseEmpty
	default:
		return PhaseRevealing
	}
}

// InProgress reports whether the entry has not yet been deployed.
func (e Entry) InProgress() bool {
	return !e.Deployed
}

// StepVisible reports whether the step at index has been revealed.
func (e Entry) StepVisible(index int) bool {
	return index >= 0 && index < len(e.Steps) && e.CurrentStep >= index
}

// Clone returns a deep copy so snapshots never alias simulator state.
func (e Entry) Clone() Entry {
	out := e
	if e.Steps != nil {
		out.Steps = append([]string(nil), e.Steps...)
	}
	if e.Stats != nil {
		stats := *e.Stats
		out.Stats = &stats
	}
	if e.DeployedAt != nil {
		at := *e.DeployedAt
		out.DeployedAt = &at
	}
	return out
}

// Snapshot is a point-in-time copy of the log, newest entry first.
type Snapshot struct {
	Entries    []Entry
	Generation uint64
	TakenAt    time.Time
}

// InProgress returns the entry still training, if any.
func (s Snapshot) InProgress() (Entry, bool) {
	for _, entry := range s.Entries {
		if entry.InProgress() {
			return entry, true
		}
	}
	return Entry{}, false
}
