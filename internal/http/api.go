package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/splax/synthteams/internal/service/simulator"
	"github.com/splax/synthteams/internal/service/subscription"
)

const (
	msgInvalidEmail    = "Invalid email address"
	msgSubscribed      = "Subscription successful"
	msgSubscribeFailed = "Failed to subscribe"
)

// handleSubscribe collapses every failure except the email shape check into
// one generic 500.
func (r *Router) handleSubscribe(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	var payload struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		r.logger.Error("subscription error", "error", err, "stage", "decode")
		r.metrics.observeSubscribe("api", "failed")
		writeError(w, http.StatusInternalServerError, msgSubscribeFailed)
		return
	}
	if _, err := r.subs.Subscribe(req.Context(), payload.Email); err != nil {
		if errors.Is(err, subscription.ErrInvalidEmail) {
			r.metrics.observeSubscribe("api", "invalid")
			writeError(w, http.StatusBadRequest, msgInvalidEmail)
			return
		}
		r.metrics.observeSubscribe("api", "failed")
		writeError(w, http.StatusInternalServerError, msgSubscribeFailed)
		return
	}
	r.metrics.observeSubscribe("api", "subscribed")
	writeJSON(w, http.StatusOK, map[string]string{"message": msgSubscribed})
}

func (r *Router) handleTrain(w http.ResponseWriter, req *http.Request) {
	result := r.log.Train()
	status := http.StatusOK
	if result == simulator.TrainDropped {
		status = http.StatusTooManyRequests
	}
	writeJSON(w, status, map[string]string{"result": string(result)})
}

func (r *Router) handleLog(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, http.StatusOK, simulator.SnapshotPayload(r.log.Snapshot()))
}
