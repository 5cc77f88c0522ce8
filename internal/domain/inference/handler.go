package inference

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/privnurse/api/internal/platform/auth"
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
	staff.GET("/tags", h.ListLocalModels)
	staff.GET("/active-models", h.GetActiveModels)
	staff.GET("/models", h.ListModels)
	staff.POST("/submit-confirmation", h.SubmitConfirmation)
	staff.GET("/history", h.History)
	staff.GET("/history/stats", h.HistoryStats)
	staff.GET("/history/:id", h.GetInference)
	staff.GET("/history/patient/:id", h.HistoryByPatient)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/active-models", h.UpdateActiveModels)
	admin.DELETE("/history/:id", h.DeleteInference)
	admin.GET("/history/user/:id", h.HistoryByUser)
}

func (h *Handler) ListLocalModels(c echo.Context) error {
	models, err := h.svc.ListLocalModels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"models": models})
}

func (h *Handler) GetActiveModels(c echo.Context) error {
	models, err := h.svc.ActiveModels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, models)
}

type activeModelsUpdate struct {
	ConsultationSummaryModel    string `json:"consultation_summary_model"`
	ConsultationValidationModel string `json:"consultation_validation_model"`
	DischargeSummaryModel       string `json:"discharge_note_summary_model"`
	DischargeValidationModel    string `json:"discharge_note_validation_model"`
	AudioModel                  string `json:"audio_model"`
}

func (h *Handler) UpdateActiveModels(c echo.Context) error {
	var req activeModelsUpdate
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	err := h.svc.UpdateActiveModels(c.Request().Context(), map[string]string{
		"consultation_summary":      req.ConsultationSummaryModel,
		"consultation_validation":   req.ConsultationValidationModel,
		"discharge_note_summary":    req.DischargeSummaryModel,
		"discharge_note_validation": req.DischargeValidationModel,
		"audio_transcription":       req.AudioModel,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "active models updated"})
}

func (h *Handler) ListModels(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListRegisteredModels(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) SubmitConfirmation(c echo.Context) error {
	var req Confirmation
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	inf, err := h.svc.SubmitConfirmation(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, inf)
}

func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContext(c)
	filter := HistoryFilter{
		Type:   c.QueryParam("type"),
		Status: c.QueryParam("status"),
	}
	// Non-admin callers only see their own history.
	ctx := c.Request().Context()
	if auth.RoleFromContext(ctx) != "admin" {
		if id, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
			filter.UserID = &id
		}
	}
	items, total, err := h.svc.History(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HistoryStats(c echo.Context) error {
	stats, err := h.svc.HistoryStats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetInference(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inf, err := h.svc.GetInference(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "inference not found")
	}
	return c.JSON(http.StatusOK, inf)
}

func (h *Handler) DeleteInference(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteInference(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) HistoryByPatient(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.History(c.Request().Context(), HistoryFilter{PatientID: &patientID}, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) HistoryByUser(c echo.Context) error {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.History(c.Request().Context(), HistoryFilter{UserID: &userID}, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
