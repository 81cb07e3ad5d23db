package feed

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"anubis-watch/internal/config"
)

// KafkaSource consumes launch and outcome messages from two topics and
// merges them into one stream. Consumer-group offsets make restarts
// resume where they left off; the mint-keyed launch store absorbs any
// redelivered messages.
type KafkaSource struct {
	launches *kafka.Reader
	outcomes *kafka.Reader
	log      *zap.Logger

	events chan Event
	group  *errgroup.Group
	cancel context.CancelFunc
}

// NewKafkaSource starts consuming both topics.
func NewKafkaSource(cfg config.KafkaConfig, log *zap.Logger) *KafkaSource {
	if log == nil {
		log = zap.NewNop()
	}

	newReader := func(topic string) *kafka.Reader {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:  cfg.Brokers,
			GroupID:  cfg.GroupID,
			Topic:    topic,
			MinBytes: 1,
			MaxBytes: 10e6,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	s := &KafkaSource{
		launches: newReader(cfg.LaunchTopic),
		outcomes: newReader(cfg.OutcomeTopic),
		log:      log,
		events:   make(chan Event, 1024),
		group:    group,
		cancel:   cancel,
	}

	group.Go(func() error { return s.consume(ctx, s.launches) })
	group.Go(func() error { return s.consume(ctx, s.outcomes) })
	return s
}

func (s *KafkaSource) consume(ctx context.Context, r *kafka.Reader) error {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading %s: %w", r.Config().Topic, err)
		}

		ev, err := Decode(msg.Value)
		if err != nil {
			s.log.Warn("dropping malformed feed message",
				zap.String("topic", r.Config().Topic),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return nil
		}
	}
}

// Next returns the next decoded event from either topic.
func (s *KafkaSource) Next(ctx context.Context) (Event, error) {
	select {
	case ev := <-s.events:
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Close stops the consumers and closes both readers.
func (s *KafkaSource) Close() error {
	s.cancel()
	err := s.group.Wait()

	if cerr := s.launches.Close(); err == nil {
		err = cerr
	}
	if cerr := s.outcomes.Close(); err == nil {
		err = cerr
	}
	return err
}
