package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"frameworks/api_session_insights/internal/canvas"
	"frameworks/api_session_insights/internal/insights"
	"frameworks/api_session_insights/internal/query"
	"frameworks/pkg/database"
	"frameworks/pkg/logging"
	"frameworks/pkg/storage"
)

var (
	cfgFile string
	output  string
	verbose bool
)

// settings lists the keys read through viper, each bound to LOOKOUT_<KEY> and <KEY>
var settings = []string{
	"clickhouse_host",
	"clickhouse_db",
	"clickhouse_user",
	"clickhouse_password",
	"clickhouse_query_timeout",
	"database_url",
	"canvas_bucket",
	"sessions_bucket",
	"presigned_url_expiration",
	"s3_region",
	"s3_endpoint",
	"s3_access_key",
	"s3_secret_key",
}

// Backends opens the stores a command needs. Commands call it lazily so that
// flag errors never dial a database.
type Backends struct {
	Comparator func(ctx context.Context, logger logging.Logger) (*insights.Comparator, func(), error)
	Resolver   func(ctx context.Context, logger logging.Logger) (*canvas.Resolver, func(), error)
}

// NewRootCmd returns the root command of lookoutctl
func NewRootCmd(b Backends) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "lookoutctl",
		Short:         "Query session insights from the command line",
		Long:          "lookoutctl runs the period-over-period comparisons and canvas URL lookups served by lookout directly against the stores.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lookout/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "output format: json|text")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	cobra.OnInitialize(initConfig)

	for _, kind := range query.Kinds {
		rootCmd.AddCommand(newInsightCmd(kind, b))
	}
	rootCmd.AddCommand(newCanvasCmd(b))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// DefaultBackends connects to ClickHouse, Postgres and S3 using viper settings
func DefaultBackends() Backends {
	return Backends{
		Comparator: func(ctx context.Context, logger logging.Logger) (*insights.Comparator, func(), error) {
			cfg := database.DefaultClickHouseConfig()
			if hosts := viper.GetStringSlice("clickhouse_host"); len(hosts) > 0 {
				cfg.Addr = splitList(hosts)
			}
			if db := viper.GetString("clickhouse_db"); db != "" {
				cfg.Database = db
			}
			if user := viper.GetString("clickhouse_user"); user != "" {
				cfg.Username = user
			}
			cfg.Password = viper.GetString("clickhouse_password")
			if timeout := durationSetting("clickhouse_query_timeout"); timeout > 0 {
				cfg.QueryTimeout = timeout
			}

			ch, err := database.ConnectClickHouse(cfg, logger)
			if err != nil {
				return nil, nil, err
			}
			c := insights.NewComparator(query.NewRunner(ch, logger, nil), logger, nil)
			return c, func() { _ = ch.Close() }, nil
		},
		Resolver: func(ctx context.Context, logger logging.Logger) (*canvas.Resolver, func(), error) {
			dbCfg := database.DefaultConfig()
			dbCfg.URL = viper.GetString("database_url")
			dbCfg.ApplicationName = "lookoutctl"
			pg, err := database.Connect(dbCfg, logger)
			if err != nil {
				return nil, nil, err
			}

			signer, err := storage.NewS3Client(ctx, storage.S3Config{
				Region:    viper.GetString("s3_region"),
				Endpoint:  viper.GetString("s3_endpoint"),
				AccessKey: viper.GetString("s3_access_key"),
				SecretKey: viper.GetString("s3_secret_key"),
			}, logger)
			if err != nil {
				_ = pg.Close()
				return nil, nil, err
			}

			opts := canvas.Options{
				Bucket:        viper.GetString("canvas_bucket"),
				DefaultBucket: viper.GetString("sessions_bucket"),
				Expiration:    durationSetting("presigned_url_expiration"),
			}
			r := canvas.NewResolver(canvas.NewRepository(pg, logger, nil), signer, opts, logger, nil)
			return r, func() { _ = pg.Close() }, nil
		},
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.lookout")
			viper.SetConfigName("config")
		}
		viper.SetConfigType("yaml")
	}

	for _, key := range settings {
		upper := strings.ToUpper(key)
		_ = viper.BindEnv(key, "LOOKOUT_"+upper, upper)
	}
	viper.SetDefault("sessions_bucket", canvas.DefaultSessionsBucket)
	viper.SetDefault("presigned_url_expiration", canvas.DefaultExpiration)

	// Ignore missing config
	_ = viper.ReadInConfig()
}

func newLogger(w io.Writer) logging.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	logger.SetLevel(logrus.WarnLevel)
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// durationSetting accepts Go durations or a bare number of seconds
func durationSetting(key string) time.Duration {
	raw := strings.TrimSpace(viper.GetString(key))
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0
	}
	return d
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func checkOutput() error {
	switch output {
	case "json", "text":
		return nil
	}
	return fmt.Errorf("unsupported --output %q (json|text)", output)
}
