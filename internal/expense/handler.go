package expense

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/opexhub/expense-approval/internal/transport"
	"github.com/opexhub/expense-approval/internal/user"
	"github.com/opexhub/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	CreateExpense(ctx context.Context, submitter *user.User, dto CreateExpenseDTO) (*Expense, error)
	SubmitExpense(expenseID int64, actor *user.User) (*Expense, error)
	GetExpenseByID(id int64, actor *user.User) (*Expense, error)
	GetUserExpenses(actor *user.User, limit, offset int) ([]*Expense, error)
	GetCompanyExpenses(actor *user.User, limit, offset int) ([]*Expense, error)
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

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateExpenseDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateExpense: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := h.Service.CreateExpense(r.Context(), u, dto)
	if err != nil {
		h.Logger.Error("CreateExpense: service error", "error", err, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created",
		"expense_id", exp.ID,
		"user_id", u.ID,
		"status", exp.Status)

	h.WriteJSON(w, http.StatusCreated, exp)
}

func (h *Handler) SubmitExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expenseID, err := h.expenseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	exp, err := h.Service.SubmitExpense(expenseID, u)
	if err != nil {
		h.Logger.Error("SubmitExpense: service error", "error", err, "expense_id", expenseID, "user_id", u.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitExpense: expense submitted", "expense_id", exp.ID, "user_id", u.ID)
	h.WriteJSON(w, http.StatusOK, exp)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expenseID, err := h.expenseID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	exp, err := h.Service.GetExpenseByID(expenseID, u)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp)
}

func (h *Handler) GetUserExpenses(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)

	expenses, err := h.Service.GetUserExpenses(u, limit, offset)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, "failed to get expenses")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetCompanyExpenses retrieves all company expenses for managers/admins.
func (h *Handler) GetCompanyExpenses(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, offset := pagination(r)

	expenses, err := h.Service.GetCompanyExpenses(u, limit, offset)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"expenses": expenses,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) expenseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	return limit, offset
}
