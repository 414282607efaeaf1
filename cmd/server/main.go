package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/interactions/internal/api"
	"github.com/annel0/interactions/internal/auth"
	"github.com/annel0/interactions/internal/cache"
	"github.com/annel0/interactions/internal/claims"
	"github.com/annel0/interactions/internal/config"
	"github.com/annel0/interactions/internal/eventbus"
	"github.com/annel0/interactions/internal/interaction"
	"github.com/annel0/interactions/internal/interaction/chance"
	"github.com/annel0/interactions/internal/interaction/dispatcher"
	"github.com/annel0/interactions/internal/interaction/executor"
	"github.com/annel0/interactions/internal/interaction/recipe"
	"github.com/annel0/interactions/internal/interaction/store"
	"github.com/annel0/interactions/internal/journal"
	"github.com/annel0/interactions/internal/logging"
	"github.com/annel0/interactions/internal/metrics"
	"github.com/annel0/interactions/internal/observability"
	"github.com/annel0/interactions/internal/vec"
	"github.com/annel0/interactions/internal/world"
	"github.com/annel0/interactions/internal/world/block"
	"github.com/annel0/interactions/internal/world/entity"
	"github.com/annel0/interactions/internal/world/item"
)

const serviceName = "interactions-server"

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: $INTERACTIONS_CONFIG)")
	demo := flag.Bool("demo", true, "Run a demo interaction after start")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	consoleLevel, fileLevel, err := cfg.Log.GetLevels()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	logging.Default().SetLevels(consoleLevel, fileLevel)

	logging.Info("🎮 Запуск сервера взаимодействий...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			Service:  cfg.Telemetry.GetService(),
			Endpoint: cfg.Telemetry.GetEndpoint(),
			Insecure: cfg.Telemetry.Insecure,
			Ratio:    cfg.Telemetry.Ratio,
		}, logging.GetServerLogger())
		if err != nil {
			logging.Error("❌ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	// === ШИНА СОБЫТИЙ ===
	bus := newBus(cfg)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(ctx, bus, logging.GetEventBusLogger()); err != nil {
		logging.Warn("LoggingListener не запущен: %v", err)
	}

	// === МЕТРИКИ ===
	met := metrics.New(prometheus.DefaultRegisterer)
	busMetrics := eventbus.NewMetricsExporter(bus, prometheus.DefaultRegisterer)
	busMetrics.Start(time.Second)
	defer busMetrics.Stop()

	metricsSrv := metrics.NewServer(fmt.Sprintf(":%d", cfg.Metrics.GetPort()), prometheus.DefaultGatherer, logging.GetServerLogger())
	metricsSrv.Start()

	// === ЖУРНАЛ ИСХОДОВ ===
	var outcomes api.OutcomeLog
	if !cfg.Journal.Disabled {
		var opts []journal.Option
		if cfg.Journal.Compress {
			opts = append(opts, journal.WithCompression())
		}
		j, err := journal.Open(cfg.Journal.GetPath(), cfg.Journal.InMemory, logging.GetJournalLogger(), opts...)
		if err != nil {
			log.Fatalf("❌ Ошибка открытия журнала: %v", err)
		}
		defer j.Close()
		if _, err := j.Attach(ctx, bus); err != nil {
			log.Fatalf("❌ Журнал не подписан на шину: %v", err)
		}
		outcomes = j
	}

	// === РЕЦЕПТЫ ===
	src := recipe.NewDirSource(cfg.Recipes.GetDir(), logging.GetRecipeLogger())
	recipes, err := store.Load(src, logging.GetRecipeLogger())
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки рецептов: %v", err)
	}
	met.ObserveReload(nil, recipes.Snapshot().Len())
	logging.Info("📜 Загружено рецептов: %d из %s", recipes.Snapshot().Len(), cfg.Recipes.GetDir())

	reload := func() error {
		err := recipes.Reload(src)
		met.ObserveReload(err, recipes.Snapshot().Len())
		if err == nil {
			logging.Info("🔄 Рецепты перезагружены: %d (поколение %d)", recipes.Snapshot().Len(), recipes.Snapshot().Generation())
		}
		return err
	}
	if _, err := eventbus.OnReload(ctx, bus, logging.GetServerLogger(), reload); err != nil {
		logging.Warn("Подписка на перезагрузку рецептов не удалась: %v", err)
	}

	// === МИР И ДИСПЕТЧЕР ===
	wm := world.NewWorldManager(logging.GetComponentLogger("world"))
	claimRepo := newClaims(ctx, cfg)
	defer claimRepo.Close()
	perms := interaction.AllOf(wm, claims.NewChecker(claimRepo, cfg.Claims.GetTimeout(), logging.GetServerLogger()))

	disp := dispatcher.New(recipes, executor.New(chance.Default()), perms,
		dispatcher.WithBus(bus, serviceName),
		dispatcher.WithMetrics(met),
		dispatcher.WithLogger(logging.GetDispatchLogger()),
	)

	// === REST API ===
	var restSrv *api.RestServer
	if !cfg.API.Disabled {
		restSrv = newRestServer(cfg, recipes, reload, outcomes, claimRepo)
		restSrv.Start()
	}

	if *demo {
		runDemo(ctx, wm, disp)
	}

	logging.Info("✅ Сервер готов")
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Metrics.GetPort())
	if restSrv != nil {
		logging.Info("   🌐 REST API: http://localhost:%d/api", cfg.API.GetPort())
	}
	logging.Info("   🔄 Перезагрузка рецептов: SIGHUP или событие %s", eventbus.TypeRecipesReload)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	for sig := range sigCh {
		if sig == syscall.SIGHUP {
			if err := reload(); err != nil {
				logging.Error("❌ Перезагрузка рецептов не удалась, остаётся прежний набор: %v", err)
			}
			continue
		}
		logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
		break
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if restSrv != nil {
		if err := restSrv.Shutdown(shutdownCtx); err != nil {
			logging.Error("❌ Ошибка остановки REST API: %v", err)
		}
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки сервера метрик: %v", err)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

// newBus подключается к NATS, если он настроен, иначе работает in-memory
func newBus(cfg *config.Config) eventbus.EventBus {
	url := cfg.EventBus.GetURL()
	if url == "" {
		logging.Info("Шина событий: in-memory")
		return eventbus.NewMemoryBus(1024)
	}

	bus, err := eventbus.NewJetStreamBus(url, cfg.EventBus.GetStream(), cfg.EventBus.GetRetention(), logging.GetEventBusLogger())
	if err != nil {
		logging.Error("❌ NATS недоступен (%v), используется in-memory шина", err)
		return eventbus.NewMemoryBus(1024)
	}
	logging.Info("Шина событий: NATS JetStream %s", url)
	return bus
}

// newClaims выбирает хранилище приватов: Redis, MariaDB или память.
// Внешнее хранилище закрывается кешем узла; при наличии NATS кеши узлов инвалидируются друг другом.
func newClaims(ctx context.Context, cfg *config.Config) claims.Repo {
	var (
		repo claims.Repo
		err  error
	)
	switch {
	case cfg.Claims.GetRedisAddr() != "":
		repo, err = claims.NewRedisRepo(ctx, &claims.RedisConfig{
			Addr:     cfg.Claims.GetRedisAddr(),
			Password: cfg.Claims.RedisPassword,
			DB:       cfg.Claims.RedisDB,
			Key:      cfg.Claims.Key,
		}, logging.GetServerLogger())
	case cfg.Claims.GetMariaDSN() != "":
		repo, err = claims.NewMariaRepo(ctx, cfg.Claims.GetMariaDSN(), logging.GetServerLogger())
	default:
		return claims.NewMemoryRepo()
	}
	if err != nil {
		logging.Error("❌ Хранилище приватов недоступно (%v), приваты хранятся в памяти", err)
		return claims.NewMemoryRepo()
	}
	if cfg.Claims.NoCache {
		return repo
	}

	var inv cache.Invalidator = cache.NopInvalidator{}
	if url := cfg.EventBus.GetURL(); url != "" {
		nodeID := fmt.Sprintf("%s-%s", serviceName, uuid.NewString()[:8])
		natsInv, err := cache.NewNATSInvalidator(&cache.InvalidatorConfig{
			NATSURL: url,
			Subject: "interactions.claims.invalidate",
		}, nodeID, logging.GetComponentLogger("cache"))
		if err != nil {
			logging.Warn("Инвалидация приватов через NATS недоступна: %v", err)
		} else {
			inv = natsInv
		}
	}

	cached, err := claims.NewCachedRepo(ctx, repo, cfg.Claims.GetCacheTTL(), inv, logging.GetServerLogger())
	if err != nil {
		logging.Warn("Кеш приватов не подключён: %v", err)
		inv.Close()
		return repo
	}
	return cached
}

// newRestServer поднимает административный API; без ключа токены действуют до перезапуска
func newRestServer(cfg *config.Config, recipes *store.Store, reload func() error, outcomes api.OutcomeLog, repo claims.Repo) *api.RestServer {
	secret := cfg.API.GetJWTSecret()
	if secret == "" {
		secret = auth.GenerateSecureSecret()
		logging.Warn("⚠️ jwt_secret не задан, используется случайный ключ")
	}
	issuer, err := auth.NewIssuer(secret, cfg.API.GetTokenTTL())
	if err != nil {
		log.Fatalf("❌ Неверный jwt_secret: %v", err)
	}

	ops := newOperators(cfg)

	srv, err := api.NewRestServer(api.Config{
		Addr:       fmt.Sprintf(":%d", cfg.API.GetPort()),
		Recipes:    recipes,
		Reload:     reload,
		Outcomes:   outcomes,
		Claims:     repo,
		Issuer:     issuer,
		Operators:  ops,
		Logger:     logging.GetComponentLogger("api"),
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		log.Fatalf("❌ REST API не создан: %v", err)
	}
	return srv
}

// newOperators открывает учётные записи операторов и заводит начального администратора
func newOperators(cfg *config.Config) auth.OperatorRepo {
	ctx := context.Background()

	var ops auth.OperatorRepo = auth.NewMemoryOperatorRepo()
	if uri := cfg.API.GetMongoURI(); uri != "" {
		repo, err := auth.NewMongoOperatorRepo(ctx, auth.MongoConfig{URI: uri})
		if err != nil {
			logging.Error("❌ MongoDB недоступна (%v), операторы хранятся в памяти", err)
		} else {
			ops = repo
		}
	}

	name, password := cfg.API.GetAdmin()
	if password == "" {
		return ops
	}
	if err := auth.EnsureOperator(ctx, ops, name, password, true); err != nil {
		logging.Error("❌ Не удалось создать администратора %s: %v", name, err)
	}
	return ops
}

// runDemo прокладывает тропинку лопатой и показывает частицы клиента
func runDemo(ctx context.Context, wm *world.WorldManager, disp *dispatcher.Dispatcher) {
	pos := vec.Vec3{X: 0, Y: 64, Z: 0}
	wm.SetBlockState(pos, block.NewState(block.GrassBlockID))

	player := entity.NewPlayer(1, "demo", vec.Vec3Float{X: 0.5, Y: 65, Z: 0.5})
	player.Hand = item.NewStack(item.WoodenShovelItemID, 1)

	a := interaction.Action{
		Actor: player,
		World: wm,
		Pos:   pos,
		Face:  vec.FaceUp,
		Hit:   vec.Vec3Float{X: 0.5, Y: 65, Z: 0.5},
		Held:  &player.Hand,
	}

	a.Side = interaction.SidePresentation
	disp.Handle(ctx, a)
	a.Side = interaction.SideAuthoritative
	disp.Handle(ctx, a)

	shovel, _ := item.Get(item.WoodenShovelItemID)
	logging.Info("🧪 Демо: блок %s, частиц %d, прочность лопаты %d/%d",
		wm.BlockAt(pos), len(wm.Particles()), player.Hand.Remaining(), shovel.MaxDurability)
}
