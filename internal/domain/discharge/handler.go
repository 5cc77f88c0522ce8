package discharge

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/privnurse/api/internal/platform/auth"
	"github.com/privnurse/api/internal/platform/llm"
	"github.com/privnurse/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireRole("user"))
	staff.GET("/discharge-notes", h.ListNotes)
	staff.GET("/discharge-notes/pending-approval", h.ListPendingApproval)
	staff.GET("/discharge-notes/:id", h.GetNote)
	staff.POST("/discharge-notes", h.CreateNote)
	staff.PUT("/discharge-notes/:id", h.UpdateNote)
	staff.POST("/discharge-notes/:id/submit-final", h.SubmitFinal)
	staff.GET("/patients/:id/discharge-note", h.GetByPatient)
	staff.GET("/patients/:id/discharge-xml", h.GetDocument)
	staff.POST("/gen-discharge-summary", h.GenerateSummary)
	staff.POST("/gen-discharge-validation", h.GenerateValidation)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/discharge-notes/:id/approve", h.Approve)
	admin.DELETE("/discharge-notes/:id", h.DeleteNote)
}

func (h *Handler) CreateNote(c echo.Context) error {
	var note Note
	if err := c.Bind(&note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateNote(c.Request().Context(), &note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) GetNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	note, err := h.svc.GetNote(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "discharge note not found")
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) GetByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	note, err := h.svc.GetByPatient(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "discharge note not found")
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) ListNotes(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListNotes(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPendingApproval(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPendingApproval(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var note Note
	if err := c.Bind(&note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	note.ID = id
	if err := h.svc.UpdateNote(c.Request().Context(), &note); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) DeleteNote(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteNote(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SubmitFinal(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	note, err := h.svc.SubmitFinal(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, note)
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	note, err := h.svc.Approve(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, note)
}

// GetDocument returns the assembled chronology document without running any
// generation, for review and troubleshooting.
func (h *Handler) GetDocument(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	doc, err := h.svc.BuildDocument(c.Request().Context(), patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"xml": doc})
}

type summaryRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
}

// GenerateSummary relays the generation stream to the client as NDJSON.
func (h *Handler) GenerateSummary(c echo.Context) error {
	var req summaryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "patient_id is required")
	}
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.WriteHeader(http.StatusOK)

	if err := h.svc.StreamSummary(c.Request().Context(), req.PatientID, resp); err != nil {
		return err
	}
	return nil
}

type validationRequest struct {
	PatientID       uuid.UUID `json:"patient_id"`
	TreatmentCourse string    `json:"treatment_course"`
}

func (h *Handler) GenerateValidation(c echo.Context) error {
	var req validationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.PatientID == uuid.Nil || req.TreatmentCourse == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing required fields")
	}
	spans, err := h.svc.Validate(c.Request().Context(), req.PatientID, req.TreatmentCourse)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, llm.ErrMissingField) || errors.Is(err, llm.ErrUnparsableResponse) {
			status = http.StatusBadGateway
		}
		return echo.NewHTTPError(status, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"relevant_text": spans})
}
