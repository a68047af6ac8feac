package commands

import (
	"chatapp-servers/internal/handlers"
	"chatapp-servers/internal/hub"
	"chatapp-servers/internal/jwt"
	"chatapp-servers/internal/keyValue"
	"chatapp-servers/internal/models"
	"chatapp-servers/internal/snowflake"
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and websocket server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func setupRedis(ctx context.Context, cfg *models.ConfigFile) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	err := rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func runServe(ctx context.Context) error {
	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	cfg := env.cfg
	sugar := env.sugar

	err = snowflake.Setup(cfg.SnowflakeWorkerID)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if !cfg.SelfContained {
		sugar.Info("Connecting to redis...")
		redisClient, err = setupRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	keyValue.Setup(sugar, redisClient, cfg.SelfContained)
	hub.Setup(sugar, redisClient, cfg.SelfContained)

	// behind nginx TLS ends at the proxy
	isHttps := cfg.TlsCert != "" && cfg.TlsKey != "" && !cfg.BehindNginx
	jwt.Setup(cfg.JwtSecret, isHttps || cfg.BehindNginx)

	handlers.Setup(cfg, sugar, env.store)

	protocol := "http"
	if isHttps {
		protocol = "https"
	}
	sugar.Infof("Server is running on %s://%s:%s", protocol, cfg.Address, cfg.Port)

	return handlers.ListenAndServe(isHttps, handlers.NewRouter())
}
