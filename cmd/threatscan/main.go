package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v3"
	"github.com/redis/go-redis/v9"

	"github.com/phishzil/threatscan/pkg/audit"
	"github.com/phishzil/threatscan/pkg/config"
	"github.com/phishzil/threatscan/pkg/detect"
	"github.com/phishzil/threatscan/pkg/lookup"
	"github.com/phishzil/threatscan/pkg/rules"
	"github.com/phishzil/threatscan/pkg/scan"
	"github.com/phishzil/threatscan/pkg/threat"
)

const Version = "0.1.0"

func main() {
	cfg := config.NewDefaultConfig()
	if path := os.Getenv("THREATSCAN_CONFIG"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			log.Fatalf("[STARTUP] FATAL: %v", err)
		}
		log.Printf("[STARTUP] Loaded config overlay from %s", path)
	}
	cfg.MustValidate()

	lookups := buildLookups(cfg)
	engine := buildEngine(cfg, lookups)
	orchestrator := scan.NewOrchestrator(engine, cfg)
	store := buildAuditStore(cfg)

	runServer(cfg, engine, orchestrator, store)
}

// buildLookups wires the lookup collaborators: static stubs at the core,
// in-process caches on top, and a shared Redis cache when configured.
func buildLookups(cfg *config.Config) lookup.Set {
	static := lookup.NewStatic()
	set := lookup.Set{
		Age:        lookup.NewCachedAger(static, cfg.LookupCacheTTL),
		SSL:        static,
		Reputation: lookup.NewCachedReputation(static, cfg.LookupCacheTTL),
		Known:      static,
		Timeout:    cfg.LookupTimeout,
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.Printf("○ Redis lookup cache disabled (ping failed: %v)", err)
		} else {
			cache := lookup.NewRedisCache(rdb, static, static, cfg.LookupCacheTTL)
			set.Reputation = cache
			set.Known = cache
			log.Printf("✓ Redis lookup cache enabled (%s)", cfg.RedisAddr)
		}
	}

	return set
}

// buildEngine assembles the assessment engine with its optional extras.
// Both the override rules and the ML channel degrade gracefully.
func buildEngine(cfg *config.Config, lookups lookup.Set) *detect.Engine {
	var opts []detect.Option

	if path := os.Getenv("THREATSCAN_RULES_FILE"); path != "" {
		overrides, err := rules.LoadOverridesFile(path)
		if err != nil {
			log.Printf("○ Override rules disabled (load failed: %v)", err)
		} else {
			opts = append(opts, detect.WithOverrides(overrides))
			log.Printf("✓ Override rules enabled (%d rules from %s)", overrides.Len(), path)
		}
	}

	if cfg.MLModelPath != "" {
		ml, err := detect.NewHugotClassifier(cfg.MLModelPath)
		if err != nil {
			log.Printf("○ ML channel disabled (init failed: %v)", err)
		} else {
			opts = append(opts, detect.WithMLClassifier(ml, cfg.MLWeight))
			log.Println("✓ ML channel enabled (hugot/ONNX)")
		}
	} else {
		log.Println("○ ML channel disabled (no model path configured)")
	}

	return detect.NewEngine(cfg, lookups, opts...)
}

func buildAuditStore(cfg *config.Config) audit.Store {
	if cfg.AuditLogPath == "" {
		return audit.Nop{}
	}
	store, err := audit.OpenJSONL(cfg.AuditLogPath)
	if err != nil {
		log.Printf("○ Audit trail disabled (open failed: %v)", err)
		return audit.Nop{}
	}
	log.Printf("✓ Audit trail enabled (%s)", cfg.AuditLogPath)
	return store
}

func runServer(cfg *config.Config, engine *detect.Engine, orchestrator *scan.Orchestrator, store audit.Store) {
	app := fiber.New(fiber.Config{
		AppName: "ThreatScan",
	})

	app.Get("/healthz", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "version": Version})
	})

	app.Post("/v1/assess", func(c fiber.Ctx) error {
		var req detect.Input
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}

		assessment := engine.Assess(c.Context(), req)
		if err := store.SaveAssessment(c.Context(), assessment); err != nil {
			log.Printf("[WARN] audit write failed: %v", err)
		}
		return c.JSON(assessment)
	})

	app.Post("/v1/scan", func(c fiber.Ctx) error {
		var req scan.Request
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
		if req.Content == "" && len(req.Attachments) == 0 {
			return c.Status(400).JSON(fiber.Map{"error": "content or attachments required"})
		}

		outcome := orchestrator.Scan(c.Context(), req)
		auditOutcome(c.Context(), store, outcome)
		return c.JSON(outcome)
	})

	log.Printf("[STARTUP] ThreatScan %s listening on %s", Version, cfg.ListenAddr)
	if err := app.Listen(cfg.ListenAddr); err != nil {
		log.Fatalf("[STARTUP] FATAL: server failed: %v", err)
	}
}

func auditOutcome(ctx context.Context, store audit.Store, outcome threat.ScanOutcome) {
	for _, d := range outcome.DisarmedLinks {
		if err := store.SaveDisarm(ctx, d); err != nil {
			log.Printf("[WARN] audit write failed: %v", err)
		}
	}
	for _, q := range outcome.QuarantinedFiles {
		if err := store.SaveQuarantine(ctx, q); err != nil {
			log.Printf("[WARN] audit write failed: %v", err)
		}
	}
}
