package category

import (
	"log/slog"
	"net/http"

	"github.com/opexhub/expense-approval/internal/transport"
	"github.com/opexhub/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	GetCategories() ([]CategoryResponse, error)
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

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.GetCategories()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to load categories")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}
