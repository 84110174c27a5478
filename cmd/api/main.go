package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zhouzirui/eliza/backend/internal/config"
	"github.com/zhouzirui/eliza/backend/internal/eliza"
	"github.com/zhouzirui/eliza/backend/internal/handler"
	elizahandler "github.com/zhouzirui/eliza/backend/internal/handler/eliza"
	"github.com/zhouzirui/eliza/backend/internal/model/script"
	"github.com/zhouzirui/eliza/backend/internal/service/ai"
	"github.com/zhouzirui/eliza/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	scriptStore := script.NewMemoryStore(script.Seed())
	sc, ok := scriptStore.FindByID(cfg.Eliza.ScriptID)
	if !ok {
		log.Fatalf("script %q not found", cfg.Eliza.ScriptID)
	}

	if cfg.Eliza.RulesFile != "" {
		rules, err := script.LoadRulesFile(cfg.Eliza.RulesFile)
		if err != nil {
			log.Fatalf("failed to load rules file: %v", err)
		}
		sc = sc.WithRules(rules)
		scriptStore.Replace(sc)
		log.Printf("loaded %d rules from %s", len(rules.Rules), cfg.Eliza.RulesFile)
	}

	// 大模型兜底为可选项，未配置时只使用脚本内置的兜底回复。
	var generator eliza.FallbackGenerator
	if cfg.AI.Enabled() {
		aiService, err := ai.NewService(ctx, cfg.AI)
		if err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
			log.Println("continuing with canned fallbacks only - 请检查 Ark 模型相关环境变量")
		} else {
			generator = aiService
			log.Println("AI fallback initialized successfully")
		}
	} else {
		log.Println("AI fallback disabled, using canned fallbacks")
	}

	greeter, responder, err := eliza.FromScript(sc, generator)
	if err != nil {
		log.Fatalf("failed to build conversation engine: %v", err)
	}

	chatService := chat.NewService()
	wsHandler := elizahandler.New(greeter, responder, chatService, sc.ID, elizahandler.Options{
		SendQueue:    cfg.Eliza.SendQueue,
		WriteTimeout: cfg.Eliza.WriteTimeout,
		PingInterval: cfg.Eliza.PingInterval,
		IdleTimeout:  cfg.Eliza.IdleTimeout,
		ReadLimit:    cfg.Eliza.ReadLimit,
	})

	router := handler.NewRouter(scriptStore, chatService, wsHandler, cfg.Eliza.Path)

	startServer(ctx, cfg.Server, router, wsHandler.Manager())
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, conns *elizahandler.ConnectionManager) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	// Shutdown does not track hijacked connections.
	srv.RegisterOnShutdown(conns.CloseAll)

	log.Printf("ELIZA backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
