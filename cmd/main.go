package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tidbyt.dev/gtfslite"
	"tidbyt.dev/gtfslite/downloader"
	"tidbyt.dev/gtfslite/internal/config"
	"tidbyt.dev/gtfslite/internal/logger"
	"tidbyt.dev/gtfslite/model"
	"tidbyt.dev/gtfslite/storage"
)

var rootCmd = &cobra.Command{
	Use:               "gtfslite",
	Short:             "GTFS schedule analysis tool",
	Long:              "Answers questions about service in a static GTFS feed",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var (
	feedSource string
	configPath string
	backend    string
	logLevel   string
	headers    []string
	jsonOutput bool

	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&feedSource, "feed", "f", "", "GTFS Static zip, as a path or URL")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&backend, "storage", "", "", "Storage backend (memory, sqlite, postgres)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "", "", "Log level")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "", []string{}, "HTTP header for feed download")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Print results as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Loads config and sets up logging. Flags win over config.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	if backend != "" {
		cfg.Storage.Backend = backend
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	err = cfg.Validate()
	if err != nil {
		return err
	}

	logCfg := logger.DefaultLoggerConfig()
	logCfg.Level = logger.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		logCfg.File = true
		logCfg.FilePath = cfg.Log.File
	}
	logger.InitLogger(logCfg)

	return nil
}

func parseHeaders(headers []string) (map[string]string, error) {
	parsed := map[string]string{}
	for _, header := range headers {
		parts := strings.SplitN(header, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("'%s' is not on form <key>:<value>", header)
		}
		parsed[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return parsed, nil
}

func buildStorage() (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStorage(), nil
	case "sqlite":
		return storage.NewSQLiteStorage(storage.SQLiteConfig{OnDisk: true, Directory: cfg.Storage.SQLiteDir})
	case "postgres":
		return storage.NewPSQLStorage(cfg.Storage.PostgresURL, cfg.Storage.ClearDB)
	}
	return nil, fmt.Errorf("unknown storage backend '%s'", cfg.Storage.Backend)
}

// Loads the feed named by --feed, through the configured storage.
func LoadFeed() (*gtfslite.Feed, error) {
	if feedSource == "" {
		return nil, fmt.Errorf("--feed is required")
	}

	s, err := buildStorage()
	if err != nil {
		return nil, fmt.Errorf("creating storage: %w", err)
	}

	manager := gtfslite.NewManager(s)
	manager.Timeout = cfg.Fetch.Timeout
	manager.MaxSize = cfg.Fetch.MaxSizeMB << 20
	manager.CacheTTL = cfg.Fetch.CacheTTL
	if cfg.Fetch.CacheDir != "" {
		fs, err := downloader.NewFilesystem(cfg.Fetch.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("creating download cache: %w", err)
		}
		manager.Downloader = fs
	}

	if !strings.HasPrefix(feedSource, "http://") && !strings.HasPrefix(feedSource, "https://") {
		return manager.LoadFile(feedSource)
	}

	h, err := parseHeaders(headers)
	if err != nil {
		return nil, fmt.Errorf("invalid header: %w", err)
	}
	for k, v := range cfg.Fetch.Headers {
		if _, found := h[k]; !found {
			h[k] = v
		}
	}

	return manager.LoadFeed(context.Background(), feedSource, h)
}

// Shared --start, --end and --field flags.
type windowFlags struct {
	start string
	end   string
	field string
}

func (w *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&w.start, "start", "s", "", "Window start (HH:MM:SS)")
	cmd.Flags().StringVarP(&w.end, "end", "e", "", "Window end (HH:MM:SS)")
	cmd.Flags().StringVarP(&w.field, "field", "", "arrival_time", "Time field (arrival_time or departure_time)")
}

func (w *windowFlags) parse() (model.Time, model.Time, gtfslite.TimeField, error) {
	start, err := model.ParseOptionalTime(w.start)
	if err != nil {
		return model.NoTime, model.NoTime, 0, fmt.Errorf("invalid start: %w", err)
	}
	end, err := model.ParseOptionalTime(w.end)
	if err != nil {
		return model.NoTime, model.NoTime, 0, fmt.Errorf("invalid end: %w", err)
	}
	field, err := gtfslite.ParseTimeField(w.field)
	if err != nil {
		return model.NoTime, model.NoTime, 0, err
	}
	return start, end, field, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func timeOrDash(t model.Time) string {
	if !t.Valid() {
		return "-"
	}
	return t.String()
}
