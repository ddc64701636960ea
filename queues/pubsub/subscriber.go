package pubsub

import (
	"context"
	"encoding/json"
	"time"

	"airspace-allocator/queues"

	gpubsub "cloud.google.com/go/pubsub"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

type Subscriber struct {
	projectID        string
	subscriptionName string
	credsFile        string
	client           *gpubsub.Client
	sub              *gpubsub.Subscription
}

func NewSubscriber(projectID, subscriptionName, credsFile string) *Subscriber {
	return &Subscriber{projectID: projectID, subscriptionName: subscriptionName, credsFile: credsFile}
}

func (s *Subscriber) Start(ctx context.Context, handler func(context.Context, *queues.ScheduleRequest) error) error {
	if s.client == nil {
		var (
			client *gpubsub.Client
			err    error
		)
		if s.credsFile != "" {
			log.Debug().Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Str("credsFile", s.credsFile).Msg("initializing pubsub subscriber with explicit credentials")
			client, err = gpubsub.NewClient(ctx, s.projectID, option.WithCredentialsFile(s.credsFile))
		} else {
			log.Debug().Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Msg("initializing pubsub subscriber with default credentials")
			client, err = gpubsub.NewClient(ctx, s.projectID)
		}
		if err != nil {
			log.Error().Err(err).Str("projectID", s.projectID).Str("subscription", s.subscriptionName).Msg("failed to create pubsub client for subscriber")
			return err
		}
		s.client = client
		s.sub = client.Subscription(s.subscriptionName)
		log.Info().Str("subscription", s.subscriptionName).Msg("pubsub subscriber initialized")
	}

	// Receive runs handlers concurrently; each request gets its own engine state.
	return s.sub.Receive(ctx, func(ctx context.Context, m *gpubsub.Message) {
		log.Debug().Str("messageID", m.ID).Int("size", len(m.Data)).Msg("received pubsub message")
		recvAt := time.Now()
		var req queues.ScheduleRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			log.Error().Err(err).Str("messageID", m.ID).Msg("failed to unmarshal schedule request; dropping")
			// Poison message, a retry would fail the same way.
			m.Ack()
			return
		}

		log.Info().Str("requestId", req.RequestID).Str("date", req.Date).Int("flights", len(req.Flights)).Msg("handling schedule request")
		if err := handler(ctx, &req); err != nil {
			log.Error().Err(err).Str("requestId", req.RequestID).Msg("handler failed; will retry")
			m.Nack()
			return
		}
		log.Debug().Str("requestId", req.RequestID).Dur("latency", time.Since(recvAt)).Msg("handler succeeded; acking message")
		m.Ack()
	})
}
