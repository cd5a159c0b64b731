package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/recordclean/internal/model"
	"github.com/stemsi/recordclean/internal/repository"
	"github.com/stemsi/recordclean/internal/response"
	"github.com/stemsi/recordclean/internal/service"
	"github.com/stemsi/recordclean/internal/validator"
)

const (
	defaultPlanPageSize = 50
	maxPlanPageSize     = 500
)

// CleanupHandler exposes the dry-run / apply flow to administrators.
type CleanupHandler struct {
	runService *service.RunService
	log        zerolog.Logger
}

// NewCleanupHandler creates a new CleanupHandler.
func NewCleanupHandler(runService *service.RunService, log zerolog.Logger) *CleanupHandler {
	return &CleanupHandler{
		runService: runService,
		log:        log.With().Str("component", "cleanup_handler").Logger(),
	}
}

// PlanSummary is what the plan endpoints return: the plan without the
// rebuilt semesters, which can be large.
type PlanSummary struct {
	ID          string                `json:"id"`
	Kind        model.Kind            `json:"kind"`
	Collection  string                `json:"collection"`
	GeneratedAt string                `json:"generated_at"`
	Scanned     int                   `json:"scanned"`
	Changed     int                   `json:"changed"`
	Skipped     []model.SkippedRecord `json:"skipped"`
	Total       model.ChangeReport    `json:"total"`
	Records     []PlannedRecordReport `json:"records"`
}

// PlannedRecordReport is one planned record without its cleaned semesters.
type PlannedRecordReport struct {
	RecordID string             `json:"record_id"`
	UserID   string             `json:"user_id"`
	Report   model.ChangeReport `json:"report"`
}

// CreatePlan godoc
// POST /api/v1/admin/cleanup/:kind/plan
// Computes a dry-run plan for the kind's collection and caches it for apply.
func (h *CleanupHandler) CreatePlan(c *gin.Context) {
	kind, ok := model.ParseKind(c.Param("kind"))
	if !ok {
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownKind)
		return
	}

	plan, err := h.runService.CreatePlan(c.Request.Context(), kind)
	if err != nil {
		if errors.Is(err, service.ErrUnknownKind) {
			response.Fail(c, http.StatusBadRequest, response.ErrUnknownKind)
			return
		}
		h.log.Error().Err(err).Str("kind", string(kind)).Msg("Failed to compute plan")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	summary, pagination := summarize(plan, 1, defaultPlanPageSize)
	response.SuccessWithPagination(c, http.StatusCreated, gin.H{"plan": summary}, pagination)
}

// GetPlan godoc
// GET /api/v1/admin/cleanup/plans/:id
// Returns one page of a cached plan.
func (h *CleanupHandler) GetPlan(c *gin.Context) {
	planID, ok := parseUUIDParam(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPlanPageSize)))

	plan, err := h.runService.GetPlan(c.Request.Context(), planID)
	if err != nil {
		if errors.Is(err, repository.ErrPlanNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrPlanNotFound)
			return
		}
		h.log.Error().Err(err).Str("plan_id", planID).Msg("Failed to load plan")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	summary, pagination := summarize(plan, page, perPage)
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"plan": summary}, pagination)
}

// ApplyPlan godoc
// POST /api/v1/admin/cleanup/plans/:id/apply
// Queues every record of a cached plan for the apply worker. Requires
// {"confirm": true}.
func (h *CleanupHandler) ApplyPlan(c *gin.Context) {
	planID, ok := parseUUIDParam(c)
	if !ok {
		return
	}

	var req model.ApplyPlanRequest
	if fields := validator.Bind(c, &req); fields != nil {
		if _, missing := fields["confirm"]; missing {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrConfirmationRequired, fields)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	run, err := h.runService.QueuePlan(c.Request.Context(), planID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPlanNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrPlanNotFound)
		case errors.Is(err, service.ErrPlanEmpty):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrPlanEmpty)
		default:
			h.log.Error().Err(err).Str("plan_id", planID).Msg("Failed to queue plan")
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	h.log.Info().
		Str("plan_id", planID).
		Str("run_id", run.RunID).
		Str("request_id", response.RequestID(c)).
		Msg("Cleanup run queued")
	response.Success(c, http.StatusAccepted, gin.H{"run": run})
}

// GetRun godoc
// GET /api/v1/admin/cleanup/runs/:id
// Returns the progress counters of a queued run.
func (h *CleanupHandler) GetRun(c *gin.Context) {
	runID, ok := parseUUIDParam(c)
	if !ok {
		return
	}

	run, err := h.runService.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, repository.ErrRunNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrRunNotFound)
			return
		}
		h.log.Error().Err(err).Str("run_id", runID).Msg("Failed to load run")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"run": run})
}

func parseUUIDParam(c *gin.Context) (string, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return "", false
	}
	return id.String(), true
}

func summarize(plan *model.Plan, page, perPage int) (*PlanSummary, *response.Pagination) {
	pagination := response.NewPagination(page, perPage, maxPlanPageSize, len(plan.Records))
	start, end := pagination.Bounds()

	records := make([]PlannedRecordReport, 0, end-start)
	for _, rec := range plan.Records[start:end] {
		records = append(records, PlannedRecordReport{
			RecordID: rec.RecordID,
			UserID:   rec.UserID,
			Report:   rec.Report,
		})
	}

	skipped := plan.Skipped
	if skipped == nil {
		skipped = []model.SkippedRecord{}
	}

	return &PlanSummary{
		ID:          plan.ID,
		Kind:        plan.Kind,
		Collection:  plan.Collection,
		GeneratedAt: plan.GeneratedAt.UTC().Format(time.RFC3339),
		Scanned:     plan.Scanned,
		Changed:     len(plan.Records),
		Skipped:     skipped,
		Total:       plan.Total,
		Records:     records,
	}, pagination
}
