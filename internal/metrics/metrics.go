// Package metrics содержит Prometheus-метрики движка взаимодействий
// и HTTP-эндпоинт /metrics.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/interactions/internal/logging"
)

const namespace = "interactions"

// Результаты обработки действия
const (
	ResultDenied   = "denied"
	ResultNoMatch  = "no_match"
	ResultMatched  = "matched"
	ResultBadWorld = "unsupported_world"
	ReloadOK       = "ok"
	ReloadFailed   = "failed"
)

// Metrics: набор метрик диспетчера и хранилища рецептов.
//
// Метрики:
// * interactions_actions_total{side,result}: counter
// * interactions_recipes_applied_total{recipe,side}: counter
// * interactions_block_changes_total, interactions_drops_total, interactions_item_damage_total: counter
// * interactions_particles_total: counter
// * interactions_dispatch_duration_seconds{side}: histogram
// * interactions_recipes_loaded: gauge
// * interactions_reloads_total{result}: counter
type Metrics struct {
	Actions       *prometheus.CounterVec
	Applied       *prometheus.CounterVec
	BlockChanges  prometheus.Counter
	Drops         prometheus.Counter
	ItemDamage    prometheus.Counter
	Particles     prometheus.Counter
	Duration      *prometheus.HistogramVec
	RecipesLoaded prometheus.Gauge
	Reloads       *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg; nil: глобальный регистр.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Обработанные действия по стороне и результату.",
		}, []string{"side", "result"}),
		Applied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_applied_total",
			Help:      "Срабатывания рецептов.",
		}, []string{"recipe", "side"}),
		BlockChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "block_changes_total",
			Help:      "Смены блоков, выполненные рецептами.",
		}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drops_total",
			Help:      "Предметы, выпавшие по рецептам.",
		}),
		ItemDamage: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "item_damage_total",
			Help:      "Суммарный расход прочности инструментов.",
		}),
		Particles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "particles_total",
			Help:      "Выпущенные частицы на стороне отображения.",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Длительность обработки одного действия.",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"side"}),
		RecipesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recipes_loaded",
			Help:      "Число рецептов в текущем снимке.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Перезагрузки набора рецептов.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.Actions, m.Applied, m.BlockChanges, m.Drops, m.ItemDamage,
		m.Particles, m.Duration, m.RecipesLoaded, m.Reloads)
	return m
}

// ObserveReload учитывает результат перезагрузки и размер нового набора
func (m *Metrics) ObserveReload(err error, loaded int) {
	if m == nil {
		return
	}
	if err != nil {
		m.Reloads.WithLabelValues(ReloadFailed).Inc()
		return
	}
	m.Reloads.WithLabelValues(ReloadOK).Inc()
	m.RecipesLoaded.Set(float64(loaded))
}

// Server отдаёт /metrics по HTTP
type Server struct {
	srv    *http.Server
	logger *logging.Logger
}

// NewServer создаёт сервер для gatherer на адресе addr (например, ":2112")
func NewServer(addr string, g prometheus.Gatherer, logger *logging.Logger) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	if logger == nil {
		logger = logging.Nop()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

// Handler возвращает HTTP-обработчик сервера
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start запускает HTTP-сервер в отдельной горутине.
func (s *Server) Start() {
	go func() {
		s.logger.Info("Prometheus /metrics доступен по адресу %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}

// Shutdown останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
