package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/placenet-simulator/internal/domain"
	"github.com/placenet-simulator/internal/domain/repository"
	"github.com/placenet-simulator/internal/pkg/logger"
	"github.com/placenet-simulator/internal/usecase/dto"
	"github.com/placenet-simulator/internal/worker"
)

const defaultRetryDelay = 5 * time.Second

// Runner выполняет прогон симуляции
type Runner interface {
	Run(ctx context.Context, req dto.RunSimulationRequest) (*domain.SimulationResult, error)
}

// RunWorker обрабатывает запросы на прогон из stream:simulation:run
// и публикует итог в stream:simulation:done
type RunWorker struct {
	*worker.BaseWorker
	streamRepo repository.StreamRepository
	runner     Runner
	maxRetries int
	retryDelay time.Duration
}

// NewRunWorker создает новый RunWorker. maxRetries - число повторов,
// когда сервис занят другим прогоном.
func NewRunWorker(
	streamRepo repository.StreamRepository,
	runner Runner,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RunWorker {
	return &RunWorker{
		BaseWorker: worker.NewBaseWorker("simulation-run", consumerGroup, logger),
		streamRepo: streamRepo,
		runner:     runner,
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
	}
}

// WithRetryDelay задаёт паузу между повторами
func (w *RunWorker) WithRetryDelay(d time.Duration) *RunWorker {
	w.retryDelay = d
	return w
}

// Start запускает воркер и блокируется до Stop или отмены ctx
func (w *RunWorker) Start(ctx context.Context) error {
	log := w.Logger()
	log.Info("Starting SimulationRunWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.ConsumerName()))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamSimulationRun, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := w.streamRepo.ConsumeStream(consumeCtx, domain.StreamSimulationRun, w.ConsumerGroup(), w.ConsumerName())
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			log.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			log.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				log.Info("Stream closed")
				return nil
			}
			w.handleMessage(ctx, msg)
		}
	}
}

// handleMessage выполняет прогон и подтверждает сообщение. Битые сообщения
// подтверждаются без ответа, ошибки прогона уходят в done-событие.
func (w *RunWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	log := w.Logger().With(zap.String("message_id", msg.ID))

	event, err := ParseRunEvent(msg.Data)
	if err != nil {
		log.Warn("Failed to parse message, skipping", zap.Error(err))
		_ = w.streamRepo.AckMessage(ctx, domain.StreamSimulationRun, w.ConsumerGroup(), msg.ID)
		return
	}
	log = log.With(zap.String("request_id", event.RequestID.String()))

	var result *domain.SimulationResult
	if event.StartDate != nil && event.EndDate != nil && !event.HasWindow() {
		err = domain.ErrInvalidPeriod
	} else {
		result, err = w.runWithRetry(ctx, event, log)
	}
	if err != nil {
		log.Error("Simulation run failed", zap.Error(err))
	} else {
		logger.WithSimulation(log, result.ID.String()).Info("Simulation run finished",
			zap.Int("epochs", result.Epochs),
			zap.Int("series_length", len(result.Series)))
	}

	done := BuildDoneEvent(event, result, err)
	if err := w.streamRepo.PublishToStream(ctx, domain.StreamSimulationDone, done); err != nil {
		log.Error("Failed to publish done event", zap.Error(err))
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamSimulationRun, w.ConsumerGroup(), msg.ID); err != nil {
		// Не критично - сообщение будет переобработано
		log.Error("Failed to ack message", zap.Error(err))
	}
}

func (w *RunWorker) runWithRetry(ctx context.Context, event *domain.SimulationRunEvent, log *zap.Logger) (*domain.SimulationResult, error) {
	req := dto.RunRequestFromEvent(event)

	for attempt := 0; ; attempt++ {
		result, err := w.runner.Run(ctx, req)
		if err == nil || !errors.Is(err, domain.ErrSimulationBusy) || attempt >= w.maxRetries {
			return result, err
		}

		log.Warn("Simulator busy, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", w.retryDelay))
		select {
		case <-time.After(w.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.StopChan():
			return nil, err
		}
	}
}

// ParseRunEvent разбирает тело сообщения. request_id обязателен.
func ParseRunEvent(data string) (*domain.SimulationRunEvent, error) {
	var event domain.SimulationRunEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.RequestID == uuid.Nil {
		return nil, fmt.Errorf("request_id is required")
	}
	return &event, nil
}

// BuildDoneEvent собирает итоговое событие. При ошибке заполняется только текст ошибки.
func BuildDoneEvent(event *domain.SimulationRunEvent, result *domain.SimulationResult, err error) *domain.SimulationDoneEvent {
	done := &domain.SimulationDoneEvent{RequestID: event.RequestID}
	if err != nil {
		done.Error = err.Error()
		return done
	}

	id := result.ID
	done.ResultID = &id
	done.Epochs = result.Epochs
	done.SeriesLength = len(result.Series)
	done.SkippedRows = result.SkippedRows
	if n := len(result.Series); n > 0 {
		done.FinalFraction = result.Series[n-1]
	}
	return done
}
