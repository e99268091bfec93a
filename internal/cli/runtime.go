package cli

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/bloomcart/bloomcart/internal/adapter"
	"github.com/bloomcart/bloomcart/internal/assistant"
	"github.com/bloomcart/bloomcart/internal/catalog"
	ctxpkg "github.com/bloomcart/bloomcart/internal/context"
	"github.com/bloomcart/bloomcart/internal/config"
	"github.com/bloomcart/bloomcart/internal/conversation"
	"github.com/bloomcart/bloomcart/internal/db"
	"github.com/bloomcart/bloomcart/internal/inquiry"
	"github.com/bloomcart/bloomcart/internal/logger"
	"github.com/bloomcart/bloomcart/internal/metrics"
	"github.com/bloomcart/bloomcart/internal/notify"
)

// runtime holds every component a command may need, wired from config.
type runtime struct {
	cfg       config.Config
	log       zerolog.Logger
	db        *db.DB
	catalog   *catalog.Store
	convs     *conversation.Store
	inquiries *inquiry.Store
	builder   *ctxpkg.Builder
	notify    *notify.Service
	model     adapter.Model
	assistant *assistant.Assistant
	registry  *prometheus.Registry
	metrics   *metrics.Metrics
}

// loadConfig reads .env, the config file and environment overrides.
func loadConfig() (config.Config, error) {
	config.LoadDotEnv()
	return config.Load(configPath)
}

// openStores opens the database and the stores only, for commands that
// never call the model. Logs go to stderr so stdout stays free for
// command output.
func openStores() (*runtime, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &runtime{
		cfg:       cfg,
		log:       logger.Init(cfg.Log.Level, cfg.Log.Format),
		db:        database,
		catalog:   catalog.NewStore(database),
		convs:     conversation.NewStore(database),
		inquiries: inquiry.NewStore(database),
	}, nil
}

// openRuntime opens the stores and wires the model adapter, dispatchers,
// context builder and assistant on top of them.
func openRuntime() (*runtime, error) {
	rt, err := openStores()
	if err != nil {
		return nil, err
	}
	cfg := rt.cfg

	rt.registry = prometheus.NewRegistry()
	rt.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rt.metrics = metrics.New(rt.registry)

	model, err := adapter.New(cfg.Model.Provider, cfg.APIKey(), adapter.Options{
		BaseURL: cfg.Model.BaseURL,
		Timeout: cfg.ModelTimeout(),
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("init model adapter: %w", err)
	}

	var counter ctxpkg.Counter
	if tok, err := ctxpkg.NewTokenizer(); err == nil {
		counter = tok
	} else {
		rt.log.Warn().Err(err).Msg("tokenizer unavailable; context budget disabled")
	}
	rt.model = model
	rt.builder = ctxpkg.NewBuilder(rt.catalog, ctxpkg.NewFormatter())

	whatsapp := notify.NewWhatsApp(notify.WhatsAppConfig{
		APIURL:         cfg.WhatsApp.APIURL,
		Token:          cfg.WhatsApp.Token,
		BusinessNumber: cfg.WhatsApp.BusinessNumber,
		Timeout:        cfg.WhatsAppTimeout(),
	}, rt.inquiries, rt.log)
	email := notify.NewEmail(notify.EmailConfig{
		APIURL:        cfg.Email.APIURL,
		APIKey:        cfg.Email.APIKey,
		From:          cfg.Email.From,
		BusinessEmail: cfg.Email.BusinessEmail,
		Timeout:       cfg.EmailTimeout(),
	}, rt.catalog, rt.inquiries, rt.log)
	rt.notify = notify.NewService(rt.inquiries, rt.metrics, rt.log, whatsapp, email)

	rt.assistant = assistant.New(assistant.Deps{
		Model:         model,
		Settings:      rt.catalog,
		Conversations: rt.convs,
		Inquiries:     rt.inquiries,
		Notifier:      rt.notify,
		Builder:       rt.builder,
		Budget:        ctxpkg.NewBudget(counter, cfg.Chat.ContextMaxTokens),
		Metrics:       rt.metrics,
		Logger:        rt.log,
	}, assistant.Options{
		HistoryLimit: cfg.Chat.HistoryLimit,
		Model:        cfg.Model.Name,
		MaxTokens:    cfg.Model.MaxTokens,
		Temperature:  cfg.Model.Temperature,
	})
	return rt, nil
}

// Close releases the database.
func (rt *runtime) Close() error {
	if rt.db == nil {
		return nil
	}
	return rt.db.Close()
}
