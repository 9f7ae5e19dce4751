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

func testCacheCfg() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{"GET": true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "testcache",
        MaxBodyBytes: 1 << 20,
    }
}

// cachedEcho mounts the cache behind JWTAuth the way the router does,
// with a handler whose body depends on the caller.
func cachedEcho(rdb *redis.Client) *echo.Echo {
    e := echo.New()
    g := e.Group("/v1")
    g.Use(JWTAuth(testSecret))
    g.Use(NewRedisCache(testCacheCfg(), rdb))
    g.GET("/bookings/my", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"owner": currentUserID(c)})
    })
    return e
}

func getMy(t *testing.T, e *echo.Echo, auth string) *httptest.ResponseRecorder {
    t.Helper()
    req := httptest.NewRequest(http.MethodGet, "/v1/bookings/my", nil)
    if auth != "" {
        req.Header.Set("Authorization", auth)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestRedisCacheHitForSameUser(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()
    e := cachedEcho(rdb)
    auth := bearerFor(t, 1, "user")

    first := getMy(t, e, auth)
    require.Equal(t, http.StatusOK, first.Code)
    assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

    second := getMy(t, e, auth)
    require.Equal(t, http.StatusOK, second.Code)
    assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, first.Body.String(), second.Body.String())
}

func TestRedisCacheIsolatesUsers(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()
    e := cachedEcho(rdb)

    // Prime the cache as user 1, then read as user 2: the entry keyed
    // to user 1 must never be replayed to another identity.
    prime := getMy(t, e, bearerFor(t, 1, "user"))
    require.Equal(t, http.StatusOK, prime.Code)
    assert.Contains(t, prime.Body.String(), `"owner":"1"`)

    other := getMy(t, e, bearerFor(t, 2, "user"))
    require.Equal(t, http.StatusOK, other.Code)
    assert.Equal(t, "MISS", other.Header().Get("X-Cache"))
    assert.Contains(t, other.Body.String(), `"owner":"2"`)
    assert.NotContains(t, other.Body.String(), `"owner":"1"`)
}

func TestRedisCacheNeverServesUnauthenticated(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()
    e := cachedEcho(rdb)

    // Warm the cache, then hit the route without a token: auth still
    // rejects, the cache does not short-circuit it.
    require.Equal(t, http.StatusOK, getMy(t, e, bearerFor(t, 1, "user")).Code)

    anon := getMy(t, e, "")
    assert.Equal(t, http.StatusUnauthorized, anon.Code)
    assert.NotContains(t, anon.Body.String(), "owner")
}

func TestRedisCacheBypassesUnresolvedIdentity(t *testing.T) {
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    defer rdb.Close()

    // Misregistered before auth: an Authorization header with no
    // resolved user in context disables the cache for that request.
    e := echo.New()
    e.Use(NewRedisCache(testCacheCfg(), rdb))
    e.GET("/v1/rooms", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{"ok": true})
    })

    req := httptest.NewRequest(http.MethodGet, "/v1/rooms", nil)
    req.Header.Set("Authorization", "Bearer opaque")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)

    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Empty(t, rec.Header().Get("X-Cache"))
    assert.Empty(t, mr.Keys())
}

func TestCacheKeyCarriesUserAndQuery(t *testing.T) {
    cfg := testCacheCfg()
    mk := func(userID interface{}, target string) string {
        e := echo.New()
        req := httptest.NewRequest(http.MethodGet, target, nil)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        c.SetPath("/v1/rooms")
        if userID != nil {
            c.Set("user_id", userID)
        }
        return cacheKeyFrom(cfg, c)
    }

    assert.Equal(t, mk(float64(1), "/v1/rooms"), mk(float64(1), "/v1/rooms"))
    assert.NotEqual(t, mk(float64(1), "/v1/rooms"), mk(float64(2), "/v1/rooms"))
    assert.NotEqual(t, mk(float64(1), "/v1/rooms?capacity=4"), mk(float64(1), "/v1/rooms?capacity=8"))
    assert.NotEqual(t, mk(float64(1), "/v1/rooms"), mk(nil, "/v1/rooms"))
}
