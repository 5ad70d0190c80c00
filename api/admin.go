package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/reugn/go-quartz/quartz"
	"github.com/samber/lo"

	"mellivora/jobs"
	"mellivora/navsync"
)

type AdminHandlers struct {
}

func NewAdminHandlers() *AdminHandlers {
	return &AdminHandlers{}
}

// TriggerProfileSync schedules a one-off full profile sync, which fans out
// per-fund NAV syncs on its own.
func (h *AdminHandlers) TriggerProfileSync(w http.ResponseWriter, r *http.Request) {
	job := &navsync.ProfileSync{}
	randJobID := lo.RandomString(10, []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"))
	jobDetail := quartz.NewJobDetail(job, quartz.NewJobKeyWithGroup(randJobID, "ProfileSync"))

	if err := jobs.Scheduler.ScheduleJob(jobDetail, quartz.NewRunOnceTrigger(time.Second*1)); err != nil {
		render.Render(w, r, ErrInternalServerError(err))
		return
	}

	render.JSON(w, r, map[string]string{"status": "scheduled", "job": randJobID})
}

// TriggerNavSync schedules a one-off NAV history sync for a single fund.
func (h *AdminHandlers) TriggerNavSync(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	job := &navsync.NavSync{Code: code}
	key := code + "-" + time.Now().Format(time.RFC3339)
	jobDetail := quartz.NewJobDetail(job, quartz.NewJobKeyWithGroup(key, "NavSync"))

	if err := jobs.Scheduler.ScheduleJob(jobDetail, quartz.NewRunOnceTrigger(time.Second*1)); err != nil {
		render.Render(w, r, ErrInternalServerError(err))
		return
	}

	render.JSON(w, r, map[string]string{"status": "scheduled", "code": code})
}
