package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/annel0/interactions/internal/logging"
)

// NATSInvalidator реализует Invalidator поверх NATS Pub/Sub.
// Собственные сообщения узла и повторы одного сообщения отбрасываются.
type NATSInvalidator struct {
	conn    *nats.Conn
	config  *InvalidatorConfig
	subject string
	nodeID  string
	logger  *logging.Logger

	subMu        sync.Mutex
	subscription *nats.Subscription
	handler      InvalidationHandler

	// Graceful shutdown
	stopCh    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// Дедупликация по ID сообщения
	recent    map[string]time.Time
	keysMutex sync.Mutex

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// InvalidatorConfig содержит конфигурацию для NATS invalidator.
type InvalidatorConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`

	MaxReconnects int           `yaml:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait"`
	DedupeWindow  time.Duration `yaml:"dedupe_window"`
}

// InvalidationMessage: сообщение об инвалидации ключа.
type InvalidationMessage struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

func (c *InvalidatorConfig) withDefaults() {
	if c.Subject == "" {
		c.Subject = "cache.invalidation"
	}
	if c.MaxReconnects == 0 {
		c.MaxReconnects = 10
	}
	if c.ReconnectWait == 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.DedupeWindow == 0 {
		c.DedupeWindow = 5 * time.Second
	}
}

// NewNATSInvalidator подключается к NATS. nodeID отличает сообщения этого узла.
func NewNATSInvalidator(config *InvalidatorConfig, nodeID string, logger *logging.Logger) (*NATSInvalidator, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	config.withDefaults()

	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(config.NATSURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	n := newNATSInvalidator(conn, config, nodeID, logger)
	n.startDedupeCleanup()

	logger.Info("NATS invalidator initialized: %s (subject: %s)", config.NATSURL, config.Subject)
	return n, nil
}

func newNATSInvalidator(conn *nats.Conn, config *InvalidatorConfig, nodeID string, logger *logging.Logger) *NATSInvalidator {
	config.withDefaults()
	return &NATSInvalidator{
		conn:    conn,
		config:  config,
		subject: config.Subject,
		nodeID:  nodeID,
		logger:  logger,
		stopCh:  make(chan struct{}),
		recent:  make(map[string]time.Time),
	}
}

// PublishInvalidation отправляет уведомление об инвалидации ключа.
func (n *NATSInvalidator) PublishInvalidation(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(&InvalidationMessage{
		ID:        uuid.NewString(),
		Key:       key,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal invalidation message: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Error("Failed to publish invalidation for key %s: %v", key, err)
		return fmt.Errorf("failed to publish invalidation: %w", err)
	}

	atomic.AddInt64(&n.publishedCount, 1)
	n.logger.Debug("Published invalidation for key: %s", key)
	return nil
}

// SubscribeInvalidations подписывается на уведомления об инвалидации.
func (n *NATSInvalidator) SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription != nil {
		return ErrAlreadySubscribed
	}
	n.handler = handler

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) { n.handleMessage(msg.Data) })
	if err != nil {
		return fmt.Errorf("failed to subscribe to invalidations: %w", err)
	}
	n.subscription = sub

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		select {
		case <-ctx.Done():
		case <-n.stopCh:
		}
		n.unsubscribe()
	}()

	n.logger.Info("Subscribed to cache invalidations on subject: %s", n.subject)
	return nil
}

// Close закрывает соединение с NATS.
func (n *NATSInvalidator) Close() error {
	n.closeOnce.Do(func() {
		close(n.stopCh)
		n.wg.Wait()
		n.unsubscribe()
		if n.conn != nil {
			n.conn.Close()
		}
		n.logger.Info("NATS invalidator closed")
	})
	return nil
}

// GetMetrics возвращает счётчики invalidator.
func (n *NATSInvalidator) GetMetrics() map[string]interface{} {
	m := map[string]interface{}{
		"published_count": atomic.LoadInt64(&n.publishedCount),
		"received_count":  atomic.LoadInt64(&n.receivedCount),
		"errors_count":    atomic.LoadInt64(&n.errorsCount),
	}
	if n.conn != nil {
		m["connected"] = n.conn.IsConnected()
	}
	return m
}

// handleMessage разбирает входящее сообщение и вызывает обработчик
func (n *NATSInvalidator) handleMessage(data []byte) {
	atomic.AddInt64(&n.receivedCount, 1)

	var msg InvalidationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Error("Failed to unmarshal invalidation message: %v", err)
		return
	}

	if msg.NodeID == n.nodeID {
		return
	}
	if !n.remember(msg.ID) {
		n.logger.Debug("Ignoring duplicate invalidation %s for key: %s", msg.ID, msg.Key)
		return
	}

	n.subMu.Lock()
	handler := n.handler
	n.subMu.Unlock()
	if handler == nil {
		return
	}
	if err := handler(msg.Key); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		n.logger.Error("Invalidation handler failed for key %s: %v", msg.Key, err)
	}
}

func (n *NATSInvalidator) unsubscribe() {
	n.subMu.Lock()
	defer n.subMu.Unlock()

	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil {
		n.logger.Error("Failed to unsubscribe from invalidations: %v", err)
	}
	n.subscription = nil
}

// remember записывает ID сообщения; false: уже видели в окне дедупликации
func (n *NATSInvalidator) remember(id string) bool {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()

	if seen, ok := n.recent[id]; ok && time.Since(seen) < n.config.DedupeWindow {
		return false
	}
	n.recent[id] = time.Now()
	return true
}

// startDedupeCleanup периодически чистит окно дедупликации
func (n *NATSInvalidator) startDedupeCleanup() {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ticker := time.NewTicker(n.config.DedupeWindow)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n.cleanupDedupe()
			case <-n.stopCh:
				return
			}
		}
	}()
}

func (n *NATSInvalidator) cleanupDedupe() {
	n.keysMutex.Lock()
	defer n.keysMutex.Unlock()

	now := time.Now()
	for id, ts := range n.recent {
		if now.Sub(ts) > n.config.DedupeWindow {
			delete(n.recent, id)
		}
	}
}
