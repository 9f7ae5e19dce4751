package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/config"
)

func rateCtx(t *testing.T, method, route string, userID interface{}) echo.Context {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(method, route, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath(route)
    if userID != nil {
        c.Set("user_id", userID)
    }
    return c
}

func rateCfg(strategy string) config.RateLimitConfig {
    return config.RateLimitConfig{
        Enabled:        true,
        Capacity:       60,
        RefillTokens:   1,
        RefillInterval: time.Second,
        TTL:            time.Minute,
        KeyStrategy:    strategy,
        Prefix:         "testrl",
    }
}

func TestBuildRateKeyStrategies(t *testing.T) {
    // httptest requests carry RemoteAddr 192.0.2.1:1234.
    cases := []struct {
        strategy string
        userID   interface{}
        want     string
    }{
        {"ip", nil, "testrl:ip:192.0.2.1"},
        {"user", float64(7), "testrl:user:7"},
        {"user", nil, "testrl:user:anon"},
        {"route", nil, "testrl:route:GET /v1/rooms"},
        {"ip_user", uint64(9), "testrl:ip:192.0.2.1:user:9"},
        {"ip_route", nil, "testrl:ip:192.0.2.1:route:GET /v1/rooms"},
        {"user_route", "12", "testrl:user:12:route:GET /v1/rooms"},
        {"ip_user_route", float64(3), "testrl:ip:192.0.2.1:user:3:route:GET /v1/rooms"},
        // Unknown strategies fall back to the full key.
        {"bogus", float64(3), "testrl:ip:192.0.2.1:user:3:route:GET /v1/rooms"},
    }
    for _, tc := range cases {
        c := rateCtx(t, http.MethodGet, "/v1/rooms", tc.userID)
        assert.Equal(t, tc.want, buildRateKey(rateCfg(tc.strategy), c), "strategy %s", tc.strategy)
    }
}

func TestBuildRateKeySeparatesUsers(t *testing.T) {
    cfg := rateCfg("user_route")
    a := buildRateKey(cfg, rateCtx(t, http.MethodGet, "/v1/bookings/my", float64(1)))
    b := buildRateKey(cfg, rateCtx(t, http.MethodGet, "/v1/bookings/my", float64(2)))
    assert.NotEqual(t, a, b)
}

func TestCurrentUserIDVariants(t *testing.T) {
    assert.Equal(t, "anon", currentUserID(rateCtx(t, http.MethodGet, "/", nil)))
    assert.Equal(t, "anon", currentUserID(rateCtx(t, http.MethodGet, "/", "")))
    assert.Equal(t, "5", currentUserID(rateCtx(t, http.MethodGet, "/", float64(5))))
    assert.Equal(t, "6", currentUserID(rateCtx(t, http.MethodGet, "/", uint64(6))))
    assert.Equal(t, "7", currentUserID(rateCtx(t, http.MethodGet, "/", "7")))
}

func TestTokenBucketExhaustion(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    cfg := rateCfg("ip")
    cfg.Capacity = 2
    cfg.RefillInterval = time.Minute

    e := echo.New()
    e.Use(NewTokenBucket(cfg, rdb))
    e.GET("/v1/rooms", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"ok": true})
    })

    codes := make([]int, 0, 3)
    for i := 0; i < 3; i++ {
        req := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        codes = append(codes, rec.Code)
        if rec.Code == http.StatusTooManyRequests {
            assert.NotEmpty(t, rec.Header().Get("Retry-After"))
        }
    }
    assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
    cfg := rateCfg("ip")
    cfg.Enabled = false

    e := echo.New()
    e.Use(NewTokenBucket(cfg, nil))
    e.GET("/v1/rooms", func(c echo.Context) error {
        return c.NoContent(http.StatusOK)
    })

    for i := 0; i < 5; i++ {
        req := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, req)
        require.Equal(t, http.StatusOK, rec.Code)
    }
}
