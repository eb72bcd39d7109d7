package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"renovation-quote/handler"
	"renovation-quote/internal/config"
	"renovation-quote/internal/integrations/notify"
	"renovation-quote/internal/integrations/objectstore"
	"renovation-quote/internal/integrations/openai"
	"renovation-quote/internal/integrations/paramstore"
	"renovation-quote/internal/logger"
	"renovation-quote/internal/repository"
	"renovation-quote/internal/usecase"
)

const openAITokenParam = "/open-ai-token"

func main() {
	ctx := context.Background()

	// ---- Configuration (read only here) ----
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("renovation-quote stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

// run wires every dependency and blocks serving requests. Deferred closes
// run on any startup failure.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// ---- AWS SDK config ----
	var (
		awsCfg aws.Config
		err    error
	)
	if cfg.NeedsAWS() {
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWS.Region != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWS.Region))
		}
		awsCfg, err = awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
	}

	// ---- Clients ----
	var keys openai.KeySource = openai.StaticKey(cfg.OpenAI.APIKey)
	if cfg.OpenAI.APIKey == "" {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return fmt.Errorf("create SSM client: %w", err)
		}
		tokens, err := paramstore.NewTokenSource(ssmClient, cfg.OpenAI.ParamPrefix+openAITokenParam)
		if err != nil {
			return fmt.Errorf("create token source: %w", err)
		}
		keys = tokens
	}
	openaiClient, err := openai.NewClient(keys,
		openai.WithBaseURL(cfg.OpenAI.BaseURL),
		openai.WithTimeout(cfg.OpenAI.Timeout),
	)
	if err != nil {
		return fmt.Errorf("create OpenAI client: %w", err)
	}

	leadStore, closeLeads, err := openLeadStore(cfg, awsCfg)
	if err != nil {
		return fmt.Errorf("open %s lead store: %w", cfg.Leads.Backend, err)
	}
	defer closeLeads()

	db, err := repository.OpenPostgres(cfg.Projects.DatabaseURL, cfg.Projects.MaxConnections, cfg.Projects.MaxIdle)
	if err != nil {
		return fmt.Errorf("open project database: %w", err)
	}
	defer db.Close()
	projectStore, err := repository.NewProjectStore(db)
	if err != nil {
		return fmt.Errorf("create project store: %w", err)
	}
	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = projectStore.Migrate(migrateCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("migrate project database: %w", err)
	}

	objects, uploadsDir, err := openObjectStore(cfg, awsCfg)
	if err != nil {
		return fmt.Errorf("open %s object store: %w", cfg.Images.Backend, err)
	}

	var notifier usecase.LeadNotifier
	if cfg.Notify.TopicARN != "" {
		sns, err := notify.NewSNS(awssns.NewFromConfig(awsCfg), cfg.Notify.TopicARN)
		if err != nil {
			return fmt.Errorf("create SNS notifier: %w", err)
		}
		notifier = sns
	}

	// ---- Services ----
	analyzer, err := usecase.NewImageAnalyzer(openaiClient, cfg.OpenAI.VisionModel, cfg.OpenAI.VisionMaxTokens, log.Named("analyzer"))
	if err != nil {
		return fmt.Errorf("create image analyzer: %w", err)
	}
	chatService, err := usecase.NewChatService(openaiClient, analyzer, cfg.OpenAI.ChatModel, cfg.Chat.Temperature, cfg.Chat.MaxMessageLen, log.Named("chat"))
	if err != nil {
		return fmt.Errorf("create chat service: %w", err)
	}
	estimateService, err := usecase.NewEstimateService(openaiClient, analyzer, cfg.OpenAI.VisionModel, log.Named("estimate"))
	if err != nil {
		return fmt.Errorf("create estimate service: %w", err)
	}
	leadService, err := usecase.NewLeadService(leadStore, notifier, log.Named("leads"))
	if err != nil {
		return fmt.Errorf("create lead service: %w", err)
	}
	projectService, err := usecase.NewProjectService(projectStore, objects, log.Named("projects"))
	if err != nil {
		return fmt.Errorf("create project service: %w", err)
	}
	uploadService, err := usecase.NewUploadService(objects, log.Named("uploads"))
	if err != nil {
		return fmt.Errorf("create upload service: %w", err)
	}

	// ---- Handler ----
	h, err := handler.NewHandler(handler.Services{
		Analyzer: analyzer,
		Chat:     chatService,
		Estimate: estimateService,
		Leads:    leadService,
		Projects: projectService,
		Uploads:  uploadService,
	}, log.Named("http"), handler.WithMaxUploadBytes(cfg.Server.MaxUploadBytes))
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		log.Info("starting in lambda mode")
		lambda.Start(h.Handle)
		return nil
	}
	return serve(cfg.Server.Addr, h, uploadsDir, log)
}

// openLeadStore returns the configured lead log and a func that releases it.
func openLeadStore(cfg *config.Config, awsCfg aws.Config) (repository.LeadStore, func(), error) {
	switch cfg.Leads.Backend {
	case config.BackendDynamoDB:
		store, err := repository.NewDynamoLeadStore(awsdynamodb.NewFromConfig(awsCfg), cfg.Leads.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		store, err := repository.OpenBoltLeadStore(cfg.Leads.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

// openObjectStore returns the image store and, for the local backend, the
// directory to serve under /uploads/.
func openObjectStore(cfg *config.Config, awsCfg aws.Config) (usecase.ObjectStore, string, error) {
	switch cfg.Images.Backend {
	case config.BackendS3:
		store, err := objectstore.NewS3(awss3.NewFromConfig(awsCfg), cfg.Images.Bucket, cfg.Images.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	default:
		store, err := objectstore.NewLocal(cfg.Images.LocalDir, cfg.Images.PublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	}
}

func serve(addr string, h http.Handler, uploadsDir string, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if uploadsDir != "" {
		mux.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	}
	mux.Handle("/", h)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
