package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	platformobservability "github.com/shestoi/yamoney-gateway/platform/observability"
)

// ActionPaymentSuccess значение action, с которым шлюз возвращает покупателя после оплаты
const ActionPaymentSuccess = "PaymentSuccess"

// Outcome результат оплаты, который видит покупатель
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeFail     Outcome = "fail"
)

// OutcomeListener уведомляется при показе страницы результата
type OutcomeListener func(ctx context.Context, outcome Outcome)

// OutcomeService страницы возврата покупателя
type OutcomeService struct {
	settings  SettingsProvider
	urls      URLResolver
	listeners []OutcomeListener
	logger    *zap.Logger
}

// NewOutcomeService создаёт OutcomeService; слушатели вызываются в порядке передачи
func NewOutcomeService(settingsProvider SettingsProvider, urls URLResolver, logger *zap.Logger, listeners ...OutcomeListener) *OutcomeService {
	return &OutcomeService{
		settings:  settingsProvider,
		urls:      urls,
		listeners: listeners,
		logger:    logger,
	}
}

// Complete текст страницы успешной оплаты
func (s *OutcomeService) Complete(ctx context.Context) (string, error) {
	return s.page(ctx, OutcomeComplete)
}

// Fail текст страницы неуспешной оплаты
func (s *OutcomeService) Fail(ctx context.Context) (string, error) {
	return s.page(ctx, OutcomeFail)
}

// Dispatch адрес, куда перенаправить покупателя по action от шлюза
func (s *OutcomeService) Dispatch(action string) string {
	if action == ActionPaymentSuccess {
		return s.urls.CompleteURL()
	}
	return s.urls.FailURL()
}

func (s *OutcomeService) page(ctx context.Context, outcome Outcome) (string, error) {
	for _, l := range s.listeners {
		l(ctx, outcome)
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}

	platformobservability.L(ctx, s.logger).Debug("outcome page shown", zap.String("outcome", string(outcome)))

	if outcome == OutcomeComplete {
		return cfg.SuccessText, nil
	}
	return cfg.FailText, nil
}
