package approval

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/opexhub/expense-approval/internal/expense"
	"github.com/opexhub/expense-approval/internal/transport"
	"github.com/opexhub/expense-approval/internal/user"
	"github.com/opexhub/expense-approval/pkg/logger"
)

type ServiceAPI interface {
	DecideApproval(expenseID int64, approver *user.User, dec Decision, dto DecisionDTO) (*expense.Expense, error)
	CreateRule(actor *user.User, dto CreateRuleDTO) (*ApprovalRule, error)
	RuleForUser(actor *user.User, targetUserID int64) (*ApprovalRule, error)
	PendingApprovalsFor(actor *user.User) ([]*PendingApprovalItem, error)
	History(expenseID int64, actor *user.User) ([]*HistoryEntry, error)
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

// ApproveExpense handles PATCH /expenses/{id}/approve.
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionApproved)
}

// RejectExpense handles PATCH /expenses/{id}/reject.
func (h *Handler) RejectExpense(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, DecisionRejected)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, dec Decision) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expenseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	var dto DecisionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil && err != io.EOF {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	exp, err := h.Service.DecideApproval(expenseID, u, dec, dto)
	if err != nil {
		h.Logger.Error("decision failed",
			"error", err,
			"expense_id", expenseID,
			"approver_id", u.ID,
			"decision", dec)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, exp)
}

// CreateRule handles POST /approval-rules.
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateRuleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateRule: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rule, err := h.Service.CreateRule(u, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, rule)
}

// GetRuleForUser handles GET /approval-rules/user/{userID}. A user governed
// by the manager fallback gets a null rule.
func (h *Handler) GetRuleForUser(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	rule, err := h.Service.RuleForUser(u, targetID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"rule": rule})
}

// GetPendingApprovals handles GET /approvals/pending.
func (h *Handler) GetPendingApprovals(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.Service.PendingApprovalsFor(u)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"pending_approvals": items})
}

// GetHistory handles GET /expenses/{id}/history.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	expenseID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense ID")
		return
	}

	entries, err := h.Service.History(expenseID, u)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": entries})
}
