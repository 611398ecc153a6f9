package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/auth"
	"github.com/komiyunity/relay-server/internal/config"
	"github.com/komiyunity/relay-server/internal/relay"
	"github.com/komiyunity/relay-server/internal/store"
)

const (
	testSecret   = "test-secret"
	testAudience = "komiyunity-client"
)

type testEnv struct {
	ts       *httptest.Server
	registry *relay.Registry
	rooms    *relay.Rooms
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.ReadHeaderTimeout = time.Second
	cfg.ShutdownTimeout = time.Second
	cfg.HandshakeTimeout = 2 * time.Second
	cfg.JWTSecret = testSecret
	cfg.JWTAudience = testAudience
	return cfg
}

func startTestServer(t *testing.T, cfg config.Config, st store.Store) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	verifier := auth.NewTokenVerifier([]byte(cfg.JWTSecret), cfg.JWTAudience, cfg.JWTIssuer)
	registry := relay.NewRegistry(cfg.RegistryShards)
	rooms := relay.NewRooms()
	lifecycle := relay.NewLifecycle(registry, rooms, &logger)
	router := relay.NewRouter(registry, rooms, lifecycle, relay.RouterConfig{
		MaxBodyBytes:    cfg.MaxBodyBytes,
		LegacyBroadcast: cfg.LegacyBroadcast,
		IncludeSender:   cfg.IncludeSender,
	}, &logger)

	server := NewServer(&cfg, verifier, st, registry, router, lifecycle, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(lifecycle.CloseAll)

	return &testEnv{ts: ts, registry: registry, rooms: rooms}
}

func makeToken(t *testing.T, uid, name, email string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": uid,
		"aud": testAudience,
		"exp": time.Now().Add(ttl).Unix(),
	}
	if name != "" {
		claims["name"] = name
	}
	if email != "" {
		claims["email"] = email
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
