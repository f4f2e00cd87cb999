package app

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/hello-db/internal/config"
	"github.com/iliyamo/hello-db/internal/database"
)

// emptyBucketRedis speaks just enough RESP to answer every script call with
// the token bucket's "no tokens left" reply {0, 0, 1000}.
type emptyBucketRedis struct {
	ln    net.Listener
	evals atomic.Int64
}

func startEmptyBucketRedis(t *testing.T) *emptyBucketRedis {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := &emptyBucketRedis{ln: ln}
	t.Cleanup(func() { _ = ln.Close() })
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.handle(conn)
		}
	}()
	return s
}

func (s *emptyBucketRedis) handle(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		args, err := readCommand(r)
		if err != nil {
			return
		}
		var reply string
		switch strings.ToUpper(args[0]) {
		case "EVALSHA", "EVAL":
			s.evals.Add(1)
			reply = "*3\r\n:0\r\n:0\r\n:1000\r\n"
		case "PING":
			reply = "+PONG\r\n"
		default:
			reply = "-ERR unknown command\r\n"
		}
		if _, err := io.WriteString(conn, reply); err != nil {
			return
		}
	}
}

func readCommand(r *bufio.Reader) ([]string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(line, "*") {
		return nil, fmt.Errorf("unexpected line %q", line)
	}
	n, err := strconv.Atoi(strings.TrimSpace(line[1:]))
	if err != nil || n < 1 {
		return nil, fmt.Errorf("bad array header %q", line)
	}
	args := make([]string, 0, n)
	for i := 0; i < n; i++ {
		hdr, err := r.ReadString('\n')
		if err != nil {
			return nil, err
		}
		size, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(hdr, "$")))
		if err != nil {
			return nil, fmt.Errorf("bad bulk header %q", hdr)
		}
		buf := make([]byte, size+2)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		args = append(args, string(buf[:size]))
	}
	return args, nil
}

func clearRateLimitEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS", "RATE_LIMIT_REFILL_INTERVAL", "RATE_LIMIT_TTL", "RATE_LIMIT_KEY_STRATEGY", "RATE_LIMIT_PREFIX", "RATE_LIMIT_DEBUG", "RATE_LIMIT_EXEMPT_PATHS"} {
		t.Setenv(k, "")
	}
}

func TestGreetingNeverRateLimited(t *testing.T) {
	clearRateLimitEnv(t)
	stub := startEmptyBucketRedis(t)
	rdb := redis.NewClient(&redis.Options{
		Addr:            stub.ln.Addr().String(),
		Protocol:        2,
		DisableIdentity: true,
		MaxRetries:      -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	a := New(config.Config{Env: "test", JWTSecret: "limiter-secret"}, Deps{
		Status:    database.NewStatus(),
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
	})
	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		a.Echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	for i := 0; i < 3; i++ {
		for _, path := range []string{"/", "/healthz"} {
			rec := get(path)
			if rec.Code != http.StatusOK {
				t.Fatalf("GET %s #%d = %d, want 200", path, i, rec.Code)
			}
			if rec.Header().Get("Retry-After") != "" {
				t.Fatalf("GET %s carried Retry-After", path)
			}
		}
	}
	if n := stub.evals.Load(); n != 0 {
		t.Errorf("limiter consulted Redis %d times for exempt routes", n)
	}

	// The limiter is live for everything else.
	rec := get("/v1/status")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("GET /v1/status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestClientIPIgnoresForwardedHeadersByDefault(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	req.Header.Set("X-Forwarded-For", "1.2.3.4")
	req.Header.Set("X-Real-Ip", "5.6.7.8")

	a := New(config.Config{}, Deps{Status: database.NewStatus()})
	if got := a.Echo.IPExtractor(req); got != "203.0.113.9" {
		t.Errorf("client IP = %q, want socket peer", got)
	}
}

func TestClientIPFromTrustedProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:443"
	req.Header.Set("X-Forwarded-For", "198.51.100.7")

	a := New(config.Config{TrustProxy: true}, Deps{Status: database.NewStatus()})
	if got := a.Echo.IPExtractor(req); got != "198.51.100.7" {
		t.Errorf("client IP = %q, want forwarded client", got)
	}
}
