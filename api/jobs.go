package api

import (
	"net/http"
	"time"

	"github.com/go-chi/render"
	"gorm.io/gorm"

	"mellivora/jobs"
)

// JobResponse represents the response for a job.
type JobResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Group   string `json:"group"`
	Data    string `json:"data"`
	NextRun int64  `json:"next_run"`
	Status  string `json:"status"`
}

// HTTPHandlers contains the handlers for the scheduler routes.
type HTTPHandlers struct {
	db *gorm.DB
}

// NewHTTPHandlers initializes the HTTP handlers.
func NewHTTPHandlers(db *gorm.DB) *HTTPHandlers {
	return &HTTPHandlers{db: db}
}

// GetUpcomingJobs returns a list of upcoming sync jobs.
func (h *HTTPHandlers) GetUpcomingJobs(w http.ResponseWriter, r *http.Request) {
	var scheduled []jobs.ScheduledJob
	if err := h.db.Where("nxt_run_time > ?", time.Now().UnixNano()).Find(&scheduled).Error; err != nil {
		render.Render(w, r, ErrInternalServerError(err))
		return
	}

	jobResponses := make([]JobResponse, 0, len(scheduled))
	for _, job := range scheduled {
		jobResponses = append(jobResponses, JobResponse{
			ID:      job.ID,
			Name:    job.JobName,
			Group:   job.JobGroup,
			Data:    job.JobData,
			NextRun: job.NextRunTime(),
			Status:  job.JobStatus,
		})
	}

	render.JSON(w, r, jobResponses)
}

// GetCompletedJobs returns a list of completed jobs filtered by timeframe and group name.
func (h *HTTPHandlers) GetCompletedJobs(w http.ResponseWriter, r *http.Request) {
	groupName := r.URL.Query().Get("group")
	startTime := r.URL.Query().Get("start_time")
	endTime := r.URL.Query().Get("end_time")

	var start, end time.Time
	if startTime != "" {
		start, _ = time.Parse(time.RFC3339, startTime)
	}
	if endTime != "" {
		end, _ = time.Parse(time.RFC3339, endTime)
	}

	query := h.db.Where("job_status = ?", "completed")
	if groupName != "" {
		query = query.Where("job_group = ?", groupName)
	}
	if startTime != "" {
		query = query.Where("nxt_run_time >= ?", start.UnixNano())
	}
	if endTime != "" {
		query = query.Where("nxt_run_time <= ?", end.UnixNano())
	}

	var scheduled []jobs.ScheduledJob
	if err := query.Find(&scheduled).Error; err != nil {
		render.Render(w, r, ErrInternalServerError(err))
		return
	}

	jobResponses := make([]JobResponse, 0, len(scheduled))
	for _, job := range scheduled {
		jobResponses = append(jobResponses, JobResponse{
			ID:      job.ID,
			Name:    job.JobName,
			Group:   job.JobGroup,
			Data:    job.JobData,
			NextRun: job.NextRunTime(),
			Status:  job.JobStatus,
		})
	}

	render.JSON(w, r, jobResponses)
}

// ErrResponse represents an error response.
type ErrResponse struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	StatusText string `json:"status"`
	AppCode    int64  `json:"code,omitempty"`
	ErrorText  string `json:"error,omitempty"`
}

// Render implements the render.Renderer interface.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

// ErrBadRequest returns a 400 Bad Request error.
func ErrBadRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Bad Request",
		ErrorText:      err.Error(),
	}
}

// ErrInternalServerError returns a 500 Internal Server Error.
func ErrInternalServerError(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusInternalServerError,
		StatusText:     "Internal Server Error",
		ErrorText:      err.Error(),
	}
}

// ErrServiceUnavailable returns a 503 so callers can tell "couldn't reach
// data" apart from "no data".
func ErrServiceUnavailable(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusServiceUnavailable,
		StatusText:     "Service Unavailable",
		ErrorText:      err.Error(),
	}
}
