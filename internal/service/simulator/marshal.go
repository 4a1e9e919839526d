package simulator

import (
	"encoding/json"
	"time"

	"github.com/splax/synthteams/internal/domain"
)

// MarshalSnapshot formats a snapshot for JSON and websocket payloads.
func MarshalSnapshot(snapshot domain.Snapshot) ([]byte, error) {
	return json.Marshal(SnapshotPayload(snapshot))
}

// SnapshotPayload converts a snapshot into a JSON-ready map.
func SnapshotPayload(snapshot domain.Snapshot) map[string]any {
	entries := make([]map[string]any, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		entries = append(entries, entryPayload(entry))
	}
	return map[string]any{
		"generation": snapshot.Generation,
		"taken_at":   snapshot.TakenAt.Format(time.RFC3339Nano),
		"entries":    entries,
	}
}

func entryPayload(entry domain.Entry) map[string]any {
	steps := entry.Steps
	if steps == nil {
		steps = []string{}
	}
	payload := map[string]any{
		"id":           entry.ID,
		"agent_name":   entry.AgentName,
		"steps":        steps,
		"current_step": entry.CurrentStep,
		"phase":        entry.Phase(),
		"deployed":     entry.Deployed,
		"manual":       entry.Manual,
		"created_at":   entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if entry.Stats != nil {
		payload["stats"] = map[string]any{
			"fte_delta":        entry.Stats.FTEDelta,
			"savings_per_year": entry.Stats.SavingsPerYear,
		}
	}
	if entry.DeployedAt != nil {
		payload["deployed_at"] = entry.DeployedAt.Format(time.RFC3339Nano)
	}
	return payload
}
