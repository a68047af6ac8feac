package commands

import (
	"chatapp-servers/internal/config"
	"chatapp-servers/internal/database"
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/storage"
	"chatapp-servers/internal/store"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "chatapp",
	Short: "Chat app backend for servers, channels and categories",
	Long: `Backend of the chat app. It keeps categories, servers and channels
together with their uploaded icons and banners, and removes those files
when they are replaced or their records are deleted.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path of the JSON config file")
}

func setupLogger(cfg *models.ConfigFile) (*zap.SugaredLogger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = level
	if cfg.LogToFile {
		zapConfig.OutputPaths = []string{"app.log", "stdout"}
	} else {
		zapConfig.OutputPaths = []string{"stdout"}
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// environment is what every subcommand needs before doing its work.
type environment struct {
	cfg   *models.ConfigFile
	sugar *zap.SugaredLogger
	db    *sql.DB
	store *store.Store
}

func setup() (*environment, error) {
	cfg, err := config.Read(configPath)
	if err != nil {
		return nil, err
	}

	sugar, err := setupLogger(cfg)
	if err != nil {
		return nil, err
	}

	db, err := database.Setup(cfg, sugar)
	if err != nil {
		return nil, err
	}

	files := storage.NewLocal(cfg.UploadRoot)

	return &environment{
		cfg:   cfg,
		sugar: sugar,
		db:    db,
		store: store.New(db, files, sugar),
	}, nil
}

func (env *environment) close() {
	err := env.db.Close()
	if err != nil {
		env.sugar.Error(err)
	}
	_ = env.sugar.Sync()
}
