package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

const (
	msgInvalidAction        = "Invalid action. Expected action: paymentAviso."
	msgInvalidTransactionID = "Invalid transaction_id provided."
	msgCanNotProcess        = "Can not process transaction."
	msgCanNotSave           = "Can not save transaction."
)

// ProcessPayment данные, которые видят хуки проверки платежа.
// Transaction и Request копии: хук может только отказать, выставив Success=false и Error.
type ProcessPayment struct {
	Transaction repository.Transaction
	Request     map[string]string
	Success     bool
	Error       string
}

// ProcessHook дополнительная проверка платежа перед переводом в payed
type ProcessHook func(ctx context.Context, p *ProcessPayment)

// CallbackService обрабатывает уведомления paymentAviso
type CallbackService struct {
	repo     repository.TransactionRepository
	settings SettingsProvider
	topics   Topics
	hooks    []ProcessHook
	logger   *zap.Logger
	now      func() time.Time
	avisos   metric.Int64Counter
}

// NewCallbackService создаёт CallbackService; хуки вызываются в порядке передачи
func NewCallbackService(
	repo repository.TransactionRepository,
	settingsProvider SettingsProvider,
	topics Topics,
	logger *zap.Logger,
	hooks ...ProcessHook,
) *CallbackService {
	avisos, err := otel.Meter("yamoney").Int64Counter("yamoney_aviso_total",
		metric.WithDescription("paymentAviso notifications by result code"))
	if err != nil {
		logger.Warn("failed to create aviso counter", zap.Error(err))
	}

	return &CallbackService{
		repo:     repo,
		settings: settingsProvider,
		topics:   topics,
		hooks:    hooks,
		logger:   logger,
		now:      time.Now,
		avisos:   avisos,
	}
}

// HandleAviso проверяет уведомление и переводит транзакцию в payed.
// Любой исход выражается кодом ответа, ошибки Go наружу не выходят.
func (s *CallbackService) HandleAviso(ctx context.Context, msg yamoney.CallbackMessage) yamoney.Response {
	code, message := s.handle(ctx, msg)

	log := platformobservability.L(ctx, s.logger).With(
		zap.String("ymid", msg.TransactionID()),
		zap.String("invoice_id", msg.InvoiceID()),
		zap.Int("code", int(code)),
	)
	if code == yamoney.CodeOK {
		log.Info("payment aviso accepted")
	} else {
		log.Warn("payment aviso rejected", zap.String("message", message))
	}

	if s.avisos != nil {
		s.avisos.Add(ctx, 1, metric.WithAttributes(attribute.Int("code", int(code))))
	}

	return yamoney.NewResponse(msg, code, message)
}

func (s *CallbackService) handle(ctx context.Context, msg yamoney.CallbackMessage) (yamoney.Code, string) {
	log := platformobservability.L(ctx, s.logger)

	if msg.Action() != yamoney.ActionPaymentAviso {
		return yamoney.CodeRequest, msgInvalidAction
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		log.Error("failed to load gateway settings", zap.Error(err))
		return yamoney.CodeCustom, msgCanNotProcess
	}

	if !yamoney.VerifyDigest(msg.Fields, cfg.Secret, msg.MD5()) {
		return yamoney.CodeMD5, ""
	}

	if !msg.Has("transaction_id") {
		return yamoney.CodeCustom, msgInvalidTransactionID
	}
	ymid := msg.TransactionID()

	tx, err := s.repo.GetByYMID(ctx, ymid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return yamoney.CodeCustom, msgInvalidTransactionID
		}
		log.Error("failed to load transaction", zap.Error(err), zap.String("ymid", ymid))
		return yamoney.CodeCustom, msgCanNotProcess
	}

	if tx.Status != repository.StatusProcessed && tx.Status != repository.StatusPayed {
		return yamoney.CodeCustom, fmt.Sprintf("Invalid transaction state: %s. Expected: %s.", tx.Status, repository.StatusProcessed)
	}

	if ok, reason := s.runHooks(ctx, tx, msg); !ok {
		return yamoney.CodeCustom, reason
	}

	// повторное уведомление по уже оплаченной транзакции
	if tx.Status == repository.StatusPayed {
		return yamoney.CodeOK, ""
	}

	if err := s.commit(ctx, tx); err != nil {
		log.Error("failed to save transaction", zap.Error(err), zap.String("ymid", ymid))
		return yamoney.CodeCustom, msgCanNotSave
	}
	return yamoney.CodeOK, ""
}

// runHooks останавливается на первом отказе
func (s *CallbackService) runHooks(ctx context.Context, tx repository.Transaction, msg yamoney.CallbackMessage) (bool, string) {
	for _, hook := range s.hooks {
		p := &ProcessPayment{
			Transaction: copyTransaction(tx),
			Request:     maps.Clone(msg.Fields),
			Success:     true,
		}
		hook(ctx, p)
		if !p.Success {
			if p.Error == "" {
				return false, msgCanNotProcess
			}
			return false, p.Error
		}
	}
	return true, ""
}

// commit переводит processed -> payed вместе с событием yamoney.success.
// Проигравший гонку перечитывает транзакцию: payed означает дубль уведомления.
func (s *CallbackService) commit(ctx context.Context, tx repository.Transaction) error {
	event, err := newPaymentEvent(s.topics.Success, eventTypePaymentSucceeded, tx, repository.StatusPayed, s.now())
	if err != nil {
		return err
	}

	_, err = s.repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID:  tx.YMID,
		From:  []repository.Status{repository.StatusProcessed},
		To:    repository.StatusPayed,
		Event: event,
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrStatusConflict) {
		return err
	}

	current, reloadErr := s.repo.GetByYMID(ctx, tx.YMID)
	if reloadErr != nil {
		return fmt.Errorf("reload after conflict: %w", reloadErr)
	}
	if current.Status == repository.StatusPayed {
		return nil
	}
	return fmt.Errorf("transaction moved to %s: %w", current.Status, err)
}

func copyTransaction(tx repository.Transaction) repository.Transaction {
	tx.Data = maps.Clone(tx.Data)
	return tx
}
