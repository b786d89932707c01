package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/solarfleet/pvcloud/pkg/cache"
	"github.com/solarfleet/pvcloud/pkg/client"
	"github.com/solarfleet/pvcloud/pkg/logging"
)

func main() {
	// Configuration from environment
	portalURL := getEnv("PORTAL_URL", "https://portal.example.com")
	redisURL := getEnv("REDIS_URL", "")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "pvcloud-proxy/0.1.0")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Output: os.Stderr,
	})

	cfg := client.DefaultConfig(portalURL, userAgent)

	// With Redis the proxy shares cache and quota across replicas;
	// without it the cache is per-process.
	if redisURL != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
		}
		logger.Info().Str("addr", redisURL).Msg("Connected to Redis")
		cfg.Redis = redisClient
		cfg.Store = cache.NewRedisStore(redisClient)
	}

	portalClient, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create portal client")
	}
	defer portalClient.Close()

	http.HandleFunc("/health", healthHandler)
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/portal/", portalProxyHandler(portalClient))

	addr := ":" + port
	logger.Info().Str("addr", addr).Str("portal", portalURL).Msg("Starting pvcloud proxy")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// portalProxyHandler forwards reads through the cached client.
// Example: /portal/v1/station/detail?stationId=4711
func portalProxyHandler(portalClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		endpoint := strings.TrimPrefix(r.URL.Path, "/portal")

		params := make(map[string]string)
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				params[k] = v[0]
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		payload, err := portalClient.Fetch(ctx, cache.CacheKey{
			Endpoint: endpoint,
			Params:   params,
			DeviceSN: params["sn"],
		}, ttlClassForEndpoint(endpoint))
		if err != nil {
			http.Error(w, fmt.Sprintf("portal request failed: %v", err), http.StatusBadGateway)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	}
}

// ttlClassForEndpoint picks the cache class per endpoint type.
func ttlClassForEndpoint(endpoint string) cache.TTLClass {
	switch {
	case strings.Contains(endpoint, "currentData"):
		return cache.TTLRealtime
	case strings.Contains(endpoint, "param"):
		return cache.TTLParameter
	default:
		return cache.TTLDiscovery
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
