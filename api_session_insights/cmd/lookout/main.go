package main

import (
	"context"
	"time"

	"frameworks/api_session_insights/internal/canvas"
	"frameworks/api_session_insights/internal/handlers"
	"frameworks/api_session_insights/internal/insights"
	"frameworks/api_session_insights/internal/metrics"
	"frameworks/api_session_insights/internal/query"
	"frameworks/pkg/auth"
	"frameworks/pkg/config"
	"frameworks/pkg/database"
	"frameworks/pkg/logging"
	"frameworks/pkg/middleware"
	"frameworks/pkg/monitoring"
	"frameworks/pkg/server"
	"frameworks/pkg/storage"
	"frameworks/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("lookout")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Lookout (Session Insights API)")

	clickhouseHosts := config.GetEnvList("CLICKHOUSE_HOST", nil)
	clickhouseDB := config.RequireEnv("CLICKHOUSE_DB")
	dbURL := config.RequireEnv("DATABASE_URL")
	jwtSecret := config.RequireEnv("JWT_SECRET")
	serviceToken := config.RequireEnv("SERVICE_TOKEN")
	if len(clickhouseHosts) == 0 {
		logger.Fatal("Required environment variable CLICKHOUSE_HOST is not set")
	}

	// ClickHouse holds the replay events; every insight query runs there
	chConfig := database.DefaultClickHouseConfig()
	chConfig.Addr = clickhouseHosts
	chConfig.Database = clickhouseDB
	chConfig.Username = config.GetEnv("CLICKHOUSE_USER", "default")
	chConfig.Password = config.GetEnv("CLICKHOUSE_PASSWORD", "")
	chConfig.QueryTimeout = config.GetEnvDuration("CLICKHOUSE_QUERY_TIMEOUT", chConfig.QueryTimeout)
	clickhouse := database.MustConnectClickHouse(chConfig, logger)
	defer func() { _ = clickhouse.Close() }()

	// PostgreSQL only serves the canvas recording index
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	dbConfig.ApplicationName = "lookout"
	pg := database.MustConnect(dbConfig, logger)
	defer func() { _ = pg.Close() }()

	canvasOpts := canvas.OptionsFromEnv()

	s3Ctx, s3Cancel := context.WithTimeout(context.Background(), 10*time.Second)
	signer, err := storage.NewS3Client(s3Ctx, storage.S3Config{
		Bucket:    canvasOpts.ResolveBucket(),
		Region:    config.GetEnv("S3_REGION", "us-east-1"),
		Endpoint:  config.GetEnv("S3_ENDPOINT", ""),
		AccessKey: config.GetEnv("S3_ACCESS_KEY", ""),
		SecretKey: config.GetEnv("S3_SECRET_KEY", ""),
	}, logger)
	s3Cancel()
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize S3 presign client")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("lookout", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("lookout", version.Version, version.GitCommit)

	healthChecker.AddCheck("clickhouse", monitoring.ClickHouseHealthCheck(clickhouse))
	healthChecker.AddCheck("postgres", monitoring.DatabaseHealthCheck(pg))
	healthChecker.AddCheck("object_storage", monitoring.ObjectStorageHealthCheck(signer.Ping))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"CLICKHOUSE_DB": clickhouseDB,
		"DATABASE_URL":  dbURL,
		"JWT_SECRET":    jwtSecret,
		"SERVICE_TOKEN": serviceToken,
	}))

	serviceMetrics := metrics.New(metricsCollector)

	comparator := insights.NewComparator(query.NewRunner(clickhouse, logger, serviceMetrics), logger, serviceMetrics)
	resolver := canvas.NewResolver(canvas.NewRepository(pg, logger, serviceMetrics), signer, canvasOpts, logger, serviceMetrics)
	handlers.Init(comparator, resolver, logger, serviceMetrics)

	logger.WithFields(logging.Fields{
		"canvas_bucket":      canvasOpts.ResolveBucket(),
		"presign_expiration": canvasOpts.ResolveExpiration(),
		"query_timeout":      chConfig.QueryTimeout,
	}).Info("Lookout configured")

	router := server.SetupServiceRouter(logger, "lookout", healthChecker, metricsCollector)

	api := router.Group("/api/v1")
	api.Use(auth.JWTAuthMiddleware([]byte(jwtSecret), serviceToken))
	api.Use(middleware.DeadlineMiddleware(config.GetEnvDuration("REQUEST_TIMEOUT", 60*time.Second)))
	handlers.RegisterRoutes(api)

	serverConfig := server.DefaultConfig("lookout", "18024")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}
