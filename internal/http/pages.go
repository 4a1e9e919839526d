package httpx

import (
	"errors"
	"net/http"
	"time"

	"github.com/splax/synthteams/internal/service/linefield"
	"github.com/splax/synthteams/internal/service/subscription"
	"github.com/splax/synthteams/internal/service/viewstate"
	"github.com/splax/synthteams/internal/web/components"
)

func (r *Router) handleIndex(w http.ResponseWriter, req *http.Request) {
	id := r.sessionID(w, req)
	view, err := r.views.Load(req.Context(), id)
	if err != nil {
		r.logger.Warn("view state load failed", "error", err)
		view = viewstate.New(id)
	}
	page := components.LandingPage(components.PageProps{
		Terminal: components.TerminalProps{Log: r.log.Snapshot(), View: view},
		Lines:    linefield.Generate(r.opts.LineCount, linefield.DefaultWidth, linefield.DefaultHeight, r.chooser),
		Motion:   linefield.DefaultMotion(),
	})
	if err := writeHTML(w, http.StatusOK, page); err != nil {
		r.logger.Error("render landing page failed", "error", err)
	}
}

// handlePrompt commits the job description for visitors without script.
func (r *Router) handlePrompt(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := req.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	id := r.sessionID(w, req)
	view, err := r.views.Load(req.Context(), id)
	if err != nil {
		r.logger.Warn("view state load failed", "error", err)
		view = viewstate.New(id)
	}
	value := req.PostForm.Get("job_description")
	if !view.SubmitJob(value) && !view.JobSubmitted {
		view.SetJobDescription(value)
	}
	r.saveView(req, view)
	http.Redirect(w, req, "/", http.StatusSeeOther)
}

func (r *Router) handleWaitlist(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
	if err := req.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}
	id := r.sessionID(w, req)
	view, err := r.views.Load(req.Context(), id)
	if err != nil {
		r.logger.Warn("view state load failed", "error", err)
		view = viewstate.New(id)
	}
	if !view.ShowWaitlist {
		http.Redirect(w, req, "/", http.StatusSeeOther)
		return
	}
	email := req.PostForm.Get("email")
	outcome := viewstate.OutcomeSubscribed
	if _, err := r.subs.Subscribe(req.Context(), email); err != nil {
		outcome = viewstate.OutcomeFailed
		if errors.Is(err, subscription.ErrInvalidEmail) {
			outcome = viewstate.OutcomeInvalid
		}
	}
	r.metrics.observeSubscribe("form", string(outcome))
	view.SubmitEmail(email, outcome)
	r.saveView(req, view)
	http.Redirect(w, req, "/#waitlist", http.StatusSeeOther)
}

func (r *Router) saveView(req *http.Request, view viewstate.State) {
	view.UpdatedAt = time.Now().UTC()
	if err := r.views.Save(req.Context(), view); err != nil {
		r.logger.Error("view state save failed", "error", err, "session_id", view.SessionID)
	}
}
