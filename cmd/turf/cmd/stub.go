package cmd

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/adapters/tokenizer"
	turfhttp "github.com/layer-3/turfbook/transport/http"
)

var (
	stubAddr             string
	stubRotate           bool
	stubAccessTTL        time.Duration
	stubRefreshTTL       time.Duration
	stubRedisRevocations bool
)

var stubCmd = &cobra.Command{
	Use:   "stub",
	Short: "Serve an in-memory turf API for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := cfg.StubAddr
		if stubAddr != "" {
			addr = stubAddr
		}

		// tokens only need to survive this process
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return fmt.Errorf("failed to generate signing key: %w", err)
		}

		logger := watermill.NewStdLogger(cfg.Debug, false)
		opts := []turfhttp.ServerOption{
			turfhttp.WithTTL(stubAccessTTL, stubRefreshTTL),
			turfhttp.WithRefreshRotation(stubRotate),
			turfhttp.WithServerLogger(logger),
			turfhttp.WithRequestLogging(true),
		}

		if stubRedisRevocations {
			redisOpts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return fmt.Errorf("failed to parse redis url: %w", err)
			}
			redisClient := redis.NewClient(redisOpts)
			defer redisClient.Close()
			if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
				return fmt.Errorf("failed to reach redis: %w", err)
			}
			opts = append(opts, turfhttp.WithRevocationList(store.NewRedisRevocationList(redisClient, cfg.StorePrefix)))
		}

		if !cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		api := turfhttp.NewServer(tokenizer.NewJWTTokenizer(privateKey), opts...)
		server := &http.Server{
			Addr:              addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		fmt.Fprintf(cmd.OutOrStdout(), "Serving turf API on %s/api (access ttl %s, rotation %t)\n", addr, stubAccessTTL, stubRotate)

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(stubCmd)
	stubCmd.Flags().StringVar(&stubAddr, "addr", "", "Listen address (overrides TURF_STUB_ADDR)")
	stubCmd.Flags().BoolVar(&stubRotate, "rotate", false, "Rotate refresh tokens on every refresh")
	stubCmd.Flags().DurationVar(&stubAccessTTL, "access-ttl", 5*time.Minute, "Access token lifetime")
	stubCmd.Flags().DurationVar(&stubRefreshTTL, "refresh-ttl", 24*time.Hour, "Refresh token lifetime")
	stubCmd.Flags().BoolVar(&stubRedisRevocations, "redis-revocations", false, "Keep rotated refresh ids in Redis (TURF_REDIS_URL)")
}
