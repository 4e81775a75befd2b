package company

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/opexhub/expense-approval/internal/transport"
	"github.com/opexhub/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	Signup(ctx context.Context, dto SignupDTO) (*SignupResponse, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Signup: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.Logger.Error("Signup: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Signup: company created", "company_id", resp.CompanyID)
	h.WriteJSON(w, http.StatusCreated, resp)
}
