package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/service"
	"github.com/shestoi/yamoney-gateway/internal/settings"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

const maxListLimit = 500

// Handler HTTP обработчики шлюза: callback от Яндекс.Денег, страницы возврата и API транзакций
type Handler struct {
	callbacks *service.CallbackService
	payments  *service.PaymentService
	outcomes  *service.OutcomeService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewHandler создаёт Handler
func NewHandler(
	callbacks *service.CallbackService,
	payments *service.PaymentService,
	outcomes *service.OutcomeService,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		callbacks: callbacks,
		payments:  payments,
		outcomes:  outcomes,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Check обрабатывает POST /yamoney/check (paymentAviso).
// Ответ всегда 200 с XML, результат передаётся атрибутом code.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		platformobservability.L(r.Context(), h.logger).Warn("failed to parse callback form", zap.Error(err))
	}

	resp := h.callbacks.HandleAviso(r.Context(), yamoney.NewCallbackMessage(r.PostForm))

	w.Header().Set("Content-Type", yamoney.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(resp.Bytes())
}

// Complete GET /yamoney/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	text, err := h.outcomes.Complete(r.Context())
	h.writePage(w, r, text, err)
}

// Fail GET /yamoney/fail
func (h *Handler) Fail(w http.ResponseWriter, r *http.Request) {
	text, err := h.outcomes.Fail(r.Context())
	h.writePage(w, r, text, err)
}

// Temp перенаправляет покупателя на страницу результата по параметру action
func (h *Handler) Temp(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.outcomes.Dispatch(r.FormValue("action")), http.StatusFound)
}

// InitiatePayment POST /yamoney/transactions
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := platformobservability.L(ctx, h.logger)

	var req InitiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload: "+err.Error())
		return
	}

	result, err := h.payments.Initiate(ctx, service.InitiateInput{
		UID:     req.UID,
		OrderID: req.OrderID,
		Mail:    req.Mail,
		Amount:  req.Amount,
		Data:    req.Data,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidOrderID):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, settings.ErrNotConfigured):
			log.Warn("payment initiation rejected", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			log.Error("failed to initiate payment", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, InitiateResponse{
		Transaction: toTransactionResponse(result.Transaction),
		Action:      result.Action,
		Mode:        string(result.Mode),
		Params:      result.Params,
	})
}

// ListTransactions GET /yamoney/transactions?status=&uid=&order_id=&limit=&offset=
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ListFilter{
		Status:  repository.Status(q.Get("status")),
		UID:     q.Get("uid"),
		OrderID: q.Get("order_id"),
		Limit:   100,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status: "+string(filter.Status))
		return
	}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.ParseUint(v, 10, 64); err != nil || filter.Limit == 0 || filter.Limit > maxListLimit {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and "+strconv.Itoa(maxListLimit))
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.ParseUint(v, 10, 64); err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}

	txs, err := h.payments.List(r.Context(), filter)
	if err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to list transactions", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTransaction GET /yamoney/transactions/{ymid}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.payments.Get(r.Context(), chi.URLParam(r, "ymid"))
	if err != nil {
		h.writeTransactionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// MarkProcessed POST /yamoney/transactions/{ymid}/processed
func (h *Handler) MarkProcessed(w http.ResponseWriter, r *http.Request) {
	tx, err := h.payments.MarkProcessed(r.Context(), chi.URLParam(r, "ymid"))
	if err != nil {
		h.writeTransactionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// FailTransaction POST /yamoney/transactions/{ymid}/fail
func (h *Handler) FailTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.payments.Fail(r.Context(), chi.URLParam(r, "ymid"))
	if err != nil {
		h.writeTransactionError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// Donate GET /yamoney/donate?amount=&comment=
func (h *Handler) Donate(w http.ResponseWriter, r *http.Request) {
	amount := decimal.Zero
	if v := r.URL.Query().Get("amount"); v != "" {
		var err error
		if amount, err = decimal.NewFromString(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
	}

	result, err := h.payments.Donate(r.Context(), amount, r.URL.Query().Get("comment"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, settings.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		default:
			platformobservability.L(r.Context(), h.logger).Error("failed to build donate form", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusOK, FormResponse{Action: result.Action, Params: result.Params})
}

// Methods GET /yamoney/methods
func (h *Handler) Methods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.payments.Methods(r.Context())
	if err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to load payment methods", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, methods)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, text string, err error) {
	if err != nil {
		platformobservability.L(r.Context(), h.logger).Error("failed to render outcome page", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func (h *Handler) writeTransactionError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	default:
		platformobservability.L(r.Context(), h.logger).Error("transaction request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
