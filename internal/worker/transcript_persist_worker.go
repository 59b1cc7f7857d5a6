package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"studygenie/internal/model"
)

var errBadPayload = errors.New("transcript payload is invalid")

type TranscriptWriter interface {
	Create(ctx context.Context, message *model.Message) error
}

// TranscriptPersistWorker drains the transcript queue into MySQL. A write
// failure is requeued once; a second failure or a bad payload is dropped.
type TranscriptPersistWorker struct {
	conn      *amqp.Connection
	repo      TranscriptWriter
	queueName string
	prefetch  int
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTranscriptPersistWorker(conn *amqp.Connection, repo TranscriptWriter, queueName string, logger *zap.Logger) *TranscriptPersistWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptPersistWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
		prefetch:  32,
		logger:    logger.Named("transcript-worker"),
	}
}

func (w *TranscriptPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}
	if err := ch.Qos(w.prefetch, 0, false); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("set worker qos failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					w.logger.Warn("delivery channel closed")
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	w.logger.Info("started", zap.String("queue", w.queueName))
	return nil
}

func (w *TranscriptPersistWorker) handle(ctx context.Context, d amqp.Delivery) {
	err := w.persist(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, errBadPayload):
		w.logger.Warn("drop transcript message", zap.Error(err))
		_ = d.Nack(false, false)
	default:
		w.logger.Error("persist transcript message failed",
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err),
		)
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (w *TranscriptPersistWorker) persist(ctx context.Context, body []byte) error {
	var msg model.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %w", errBadPayload, err)
	}
	if msg.SessionID == "" || msg.Role == "" {
		return fmt.Errorf("%w: missing session id or role", errBadPayload)
	}
	msg.ID = 0
	return w.repo.Create(ctx, &msg)
}

func (w *TranscriptPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
