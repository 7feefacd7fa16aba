package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/arena/go/internal/models"
)

const (
	EventTypeSnapshot = "snapshot"
	EventTypeComplete = "complete"
)

type JetStreamConfig struct {
	URL             string
	StreamName      string
	SubjectPrefix   string
	MaxReconnects   int
	ReconnectWait   time.Duration
	MaxAge          time.Duration // How long to keep messages
	Replicas        int
	DuplicateWindow time.Duration
	QueueSize       int // Snapshots buffered between the match loop and NATS
	TerminalTimeout time.Duration // How long a final snapshot waits for queue space
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		StreamName:      "ARENA_EVENTS",
		SubjectPrefix:   "arena.events",
		MaxReconnects:   -1, // Infinite
		ReconnectWait:   2 * time.Second,
		MaxAge:          24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		QueueSize:       256,
		TerminalTimeout: 5 * time.Second,
	}
}

// msgPublisher is the part of jetstream.JetStream the publisher needs.
type msgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// JetStreamPublisher is an orchestrator renderer that forwards every snapshot to a
// JetStream stream. Render only enqueues; Run does the network work.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     msgPublisher
	config JetStreamConfig
	queue  chan models.View
}

func NewJetStreamPublisher(ctx context.Context, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.Name("arena-publisher"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg); err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensure stream: %w", err)
	}

	p := newPublisher(js, cfg)
	p.nc = nc
	return p, nil
}

func newPublisher(js msgPublisher, cfg JetStreamConfig) *JetStreamPublisher {
	size := cfg.QueueSize
	if size <= 0 {
		size = DefaultJetStreamConfig().QueueSize
	}
	return &JetStreamPublisher{js: js, config: cfg, queue: make(chan models.View, size)}
}

func streamConfig(cfg JetStreamConfig) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Arena match snapshots",
		Subjects:    []string{fmt.Sprintf("%s.>", cfg.SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		MaxMsgs:     -1,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}
}

func ensureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	sc := streamConfig(cfg)

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return fmt.Errorf("create stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return fmt.Errorf("get stream info: %w", err)
	}
	if !isStreamConfigEqual(info.Config, sc) {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return fmt.Errorf("update stream: %w", err)
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// Render queues view for publishing. A full queue drops the snapshot rather than
// stalling the match.
func (p *JetStreamPublisher) Render(view models.View) {
	if view.RunState == models.RunStateHalted {
		p.enqueueTerminal(view)
		return
	}
	select {
	case p.queue <- view:
	default:
		log.Warn().Uint64("seq", view.Seq).Msg("publish queue full, dropping snapshot")
	}
}

// enqueueTerminal waits up to TerminalTimeout for queue space so the final snapshot
// and its complete event are not lost behind a backlog.
func (p *JetStreamPublisher) enqueueTerminal(view models.View) {
	timeout := p.config.TerminalTimeout
	if timeout <= 0 {
		timeout = DefaultJetStreamConfig().TerminalTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p.queue <- view:
	case <-timer.C:
		log.Error().Uint64("seq", view.Seq).Dur("timeout", timeout).Msg("publish queue full, dropping final snapshot")
	}
}

// RenderTimer is a no-op; live readouts are not worth a stream entry.
func (p *JetStreamPublisher) RenderTimer(models.Agent, string) {}

// Run publishes queued snapshots until ctx is cancelled, then flushes what is left
// with a short grace period.
func (p *JetStreamPublisher) Run(ctx context.Context) error {
	log.Info().Str("stream", p.config.StreamName).Msg("snapshot publisher started")
	for {
		select {
		case view := <-p.queue:
			p.publishView(ctx, view)
		case <-ctx.Done():
			p.drain()
			log.Info().Msg("snapshot publisher stopped")
			return nil
		}
	}
}

func (p *JetStreamPublisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case view := <-p.queue:
			p.publishView(ctx, view)
		default:
			return
		}
	}
}

func (p *JetStreamPublisher) publishView(ctx context.Context, view models.View) {
	if err := p.publish(ctx, EventTypeSnapshot, view); err != nil {
		log.Error().Err(err).Uint64("seq", view.Seq).Msg("failed to publish snapshot")
	}
	if view.Complete && view.RunState == models.RunStateHalted {
		if err := p.publish(ctx, EventTypeComplete, view); err != nil {
			log.Error().Err(err).Uint64("seq", view.Seq).Msg("failed to publish completion")
		}
	}
}

func (p *JetStreamPublisher) publish(ctx context.Context, eventType string, view models.View) error {
	msg, eventID, err := p.buildMessage(eventType, view)
	if err != nil {
		return err
	}

	ack, err := p.js.PublishMsg(ctx, msg,
		jetstream.WithMsgID(eventID),
		jetstream.WithExpectStream(p.config.StreamName),
	)
	if err != nil {
		return fmt.Errorf("publish to JetStream: %w", err)
	}

	log.Debug().
		Str("subject", msg.Subject).
		Str("event_id", eventID).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		Msg("published to JetStream")
	return nil
}

func (p *JetStreamPublisher) buildMessage(eventType string, view models.View) (*nats.Msg, string, error) {
	eventID := uuid.New().String()
	env := map[string]interface{}{
		"eventId":   eventID,
		"eventType": eventType,
		"seq":       view.Seq,
		"timestamp": time.Now().UTC(),
		"payload":   view,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("marshal %s event: %w", eventType, err)
	}

	return &nats.Msg{
		Subject: fmt.Sprintf("%s.%s", p.config.SubjectPrefix, eventType),
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{eventType},
			"Event-ID":   []string{eventID},
			"Seq":        []string{strconv.FormatUint(view.Seq, 10)},
			"Game":       []string{strconv.Itoa(view.Game)},
		},
	}, eventID, nil
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}

func isStreamConfigEqual(a, b jetstream.StreamConfig) bool {
	return a.Name == b.Name &&
		a.MaxAge == b.MaxAge &&
		a.MaxMsgs == b.MaxMsgs &&
		a.Replicas == b.Replicas &&
		a.Duplicates == b.Duplicates
}
