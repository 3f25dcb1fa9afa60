package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"

	"github.com/shestoi/yamoney-gateway/internal/repository"
	"github.com/shestoi/yamoney-gateway/internal/settings"
	"github.com/shestoi/yamoney-gateway/internal/yamoney"
)

var (
	// ErrInvalidAmount сумма вне NUMERIC(14,2) или не больше нуля
	ErrInvalidAmount = errors.New("amount must be positive, below 10^12, with at most 2 decimal places")
	// ErrInvalidOrderID номер заказа обязателен
	ErrInvalidOrderID = errors.New("order_id is required")
	// ErrInvalidTransition транзакция уже в статусе, из которого переход невозможен
	ErrInvalidTransition = errors.New("invalid transaction status transition")
)

// maxAmount граница колонки transactions.amount NUMERIC(14,2)
var maxAmount = decimal.New(1, 12)

// fitsAmountColumn сумма помещается в NUMERIC(14,2) без округления
func fitsAmountColumn(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(2)) && amount.Abs().LessThan(maxAmount)
}

// PaymentService создаёт транзакции и готовит платёжную форму
type PaymentService struct {
	repo     repository.TransactionRepository
	settings SettingsProvider
	builder  *yamoney.Builder
	urls     URLResolver
	topics   Topics
	logger   *zap.Logger
	now      func() time.Time
}

// NewPaymentService создаёт PaymentService
func NewPaymentService(
	repo repository.TransactionRepository,
	settingsProvider SettingsProvider,
	builder *yamoney.Builder,
	urls URLResolver,
	topics Topics,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:     repo,
		settings: settingsProvider,
		builder:  builder,
		urls:     urls,
		topics:   topics,
		logger:   logger,
		now:      time.Now,
	}
}

// InitiateInput входные данные для создания платежа
type InitiateInput struct {
	UID     string
	OrderID string
	Mail    string
	Amount  decimal.Decimal
	Data    map[string]string
}

// InitiateResult транзакция и форма, которую покупатель отправляет шлюзу
type InitiateResult struct {
	Transaction repository.Transaction
	Action      string
	Mode        yamoney.Mode
	Params      *yamoney.Params
}

// Initiate создаёт транзакцию in_process и строит параметры формы
func (s *PaymentService) Initiate(ctx context.Context, in InitiateInput) (InitiateResult, error) {
	if !in.Amount.IsPositive() || !fitsAmountColumn(in.Amount) {
		return InitiateResult{}, ErrInvalidAmount
	}
	if in.OrderID == "" {
		return InitiateResult{}, ErrInvalidOrderID
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return InitiateResult{}, fmt.Errorf("load settings: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return InitiateResult{}, err
	}

	tx, err := s.repo.Create(ctx, repository.Transaction{
		YMID:    uuid.NewString(),
		UID:     in.UID,
		OrderID: in.OrderID,
		Mail:    in.Mail,
		Amount:  in.Amount,
		Status:  repository.StatusInProcess,
		Data:    maps.Clone(in.Data),
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("create transaction: %w", err)
	}

	params := s.builder.Build(tx, cfg, yamoney.ReturnURLs{
		Success: s.urls.CompleteURL(),
		Fail:    s.urls.FailURL(),
	})

	platformobservability.L(ctx, s.logger).Info("payment initiated",
		zap.String("ymid", tx.YMID),
		zap.String("order_id", tx.OrderID),
		zap.String("amount", yamoney.FormatAmount(tx.Amount)),
	)

	return InitiateResult{
		Transaction: tx,
		Action:      yamoney.SubmissionURL(cfg),
		Mode:        yamoney.ModeFor(cfg),
		Params:      params,
	}, nil
}

// MarkProcessed переводит in_process -> processed: только после этого принимается paymentAviso
func (s *PaymentService) MarkProcessed(ctx context.Context, ymid string) (repository.Transaction, error) {
	tx, err := s.repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID: ymid,
		From: []repository.Status{repository.StatusInProcess},
		To:   repository.StatusProcessed,
	})
	if err != nil {
		return repository.Transaction{}, s.transitionError(ctx, ymid, repository.StatusProcessed, err)
	}

	platformobservability.L(ctx, s.logger).Info("transaction processed", zap.String("ymid", ymid))
	return tx, nil
}

// Fail переводит in_process|processed -> failed и публикует yamoney.fail
func (s *PaymentService) Fail(ctx context.Context, ymid string) (repository.Transaction, error) {
	current, err := s.repo.GetByYMID(ctx, ymid)
	if err != nil {
		return repository.Transaction{}, err
	}

	event, err := newPaymentEvent(s.topics.Fail, eventTypePaymentFailed, current, repository.StatusFailed, s.now())
	if err != nil {
		return repository.Transaction{}, err
	}

	tx, err := s.repo.TransitionStatus(ctx, repository.TransitionInput{
		YMID:  ymid,
		From:  []repository.Status{repository.StatusInProcess, repository.StatusProcessed},
		To:    repository.StatusFailed,
		Event: event,
	})
	if err != nil {
		return repository.Transaction{}, s.transitionError(ctx, ymid, repository.StatusFailed, err)
	}

	platformobservability.L(ctx, s.logger).Info("transaction failed", zap.String("ymid", ymid))
	return tx, nil
}

// Get возвращает транзакцию по ymid
func (s *PaymentService) Get(ctx context.Context, ymid string) (repository.Transaction, error) {
	return s.repo.GetByYMID(ctx, ymid)
}

// List возвращает транзакции по фильтру
func (s *PaymentService) List(ctx context.Context, filter repository.ListFilter) ([]repository.Transaction, error) {
	return s.repo.List(ctx, filter)
}

// Methods включённые способы оплаты
func (s *PaymentService) Methods(ctx context.Context) ([]yamoney.Method, error) {
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return yamoney.EnabledMethods(cfg), nil
}

// DonateResult форма пожертвования
type DonateResult struct {
	Action string
	Params *yamoney.Params
}

// Donate строит quick-pay форму пожертвования на кошелёк из настроек
func (s *PaymentService) Donate(ctx context.Context, amount decimal.Decimal, comment string) (DonateResult, error) {
	if amount.IsNegative() || !fitsAmountColumn(amount) {
		return DonateResult{}, ErrInvalidAmount
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return DonateResult{}, fmt.Errorf("load settings: %w", err)
	}
	if cfg.Receiver == "" {
		return DonateResult{}, fmt.Errorf("%w: yamoney_receiver is required for donations", settings.ErrNotConfigured)
	}

	return DonateResult{
		Action: yamoney.QuickpayURL(cfg),
		Params: yamoney.BuildDonate(cfg.Receiver, amount, comment),
	}, nil
}

func (s *PaymentService) transitionError(ctx context.Context, ymid string, to repository.Status, err error) error {
	if !errors.Is(err, repository.ErrStatusConflict) {
		return err
	}
	current, getErr := s.repo.GetByYMID(ctx, ymid)
	if getErr != nil {
		return getErr
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
}
