package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/zoobzio/capitan"

	"codecraft-agent/handler"
	"codecraft-agent/internal/integrations/llm"
	"codecraft-agent/internal/integrations/paramstore"
	"codecraft-agent/internal/scaffold"
	"codecraft-agent/internal/usecase"
)

const defaultAllowedOrigins = "https://code-craft-ui.vercel.app"

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	paramPrefix := mustEnv("PARAM_PREFIX")
	allowedOrigins := envList("ALLOWED_ORIGINS", defaultAllowedOrigins)
	baseURL := envString("LLM_BASE_URL", llm.DefaultBaseURL)
	staticModel := strings.TrimSpace(os.Getenv("MODEL"))
	maxPromptLen := envInt("MAX_PROMPT_LENGTH", 4000)
	localAddr := strings.TrimSpace(os.Getenv("LOCAL_ADDR"))

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		slog.Error("failed to load AWS config", "err", err)
		os.Exit(1)
	}

	// ---- Clients ----
	ssmClient, err := paramstore.New(awsssm.NewFromConfig(cfg))
	if err != nil {
		slog.Error("failed to create SSM client", "err", err)
		os.Exit(1)
	}

	llmClient, err := llm.NewClient(ssmClient, paramPrefix, llm.WithBaseURL(baseURL))
	if err != nil {
		slog.Error("failed to create completion client", "err", err)
		os.Exit(1)
	}
	registerCompletionLogging()

	var models usecase.ModelSource = usecase.StaticModel(staticModel)
	if staticModel == "" {
		models, err = usecase.NewRemoteConfig(ssmClient, paramPrefix)
		if err != nil {
			slog.Error("failed to create remote config", "err", err)
			os.Exit(1)
		}
	}

	// ---- Handler ----
	templateService, err := usecase.NewTemplateService(llmClient, models, maxPromptLen)
	if err != nil {
		slog.Error("failed to create template service", "err", err)
		os.Exit(1)
	}
	chatService, err := usecase.NewChatService(llmClient, models, scaffold.SystemPrompt())
	if err != nil {
		slog.Error("failed to create chat service", "err", err)
		os.Exit(1)
	}

	h, err := handler.NewHandler(templateService, chatService, allowedOrigins)
	if err != nil {
		slog.Error("failed to create handler", "err", err)
		os.Exit(1)
	}

	if localAddr != "" {
		serveLocal(localAddr, h.Router())
		return
	}
	lambda.Start(h.Handle)
}

func serveLocal(addr string, router http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown failed", "err", err)
		}
	}()

	slog.Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "err", err)
		os.Exit(1)
	}
}

func registerCompletionLogging() {
	capitan.Hook(llm.CallCompleted, func(_ context.Context, e *capitan.Event) {
		model, _ := llm.ModelKey.From(e)
		attempts, _ := llm.AttemptsKey.From(e)
		duration, _ := llm.DurationMsKey.From(e)
		tokens, _ := llm.TotalTokensKey.From(e)
		slog.Info("completion call finished", "model", model, "attempts", attempts, "duration_ms", duration, "total_tokens", tokens)
	})
	capitan.Hook(llm.CallFailed, func(_ context.Context, e *capitan.Event) {
		model, _ := llm.ModelKey.From(e)
		attempts, _ := llm.AttemptsKey.From(e)
		status, _ := llm.StatusCodeKey.From(e)
		msg, _ := llm.ErrorKey.From(e)
		slog.Warn("completion call failed", "model", model, "attempts", attempts, "status", status, "err", msg)
	})
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		slog.Error("required environment variable is not set", "key", key)
		os.Exit(1)
	}
	return v
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envList(key, def string) []string {
	var out []string
	for _, v := range strings.Split(envString(key, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
