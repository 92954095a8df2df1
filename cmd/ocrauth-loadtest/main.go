// Command ocrauth-loadtest measures engine throughput against a Redis-backed
// state store. It runs two phases: starting authentication sessions and
// completing them with computed OCRA responses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ocrauth/ocrauth"
	"github.com/ocrauth/ocrauth/ocra"
)

const userSecret = "3132333435363738393031323334353637383930"

type authSession struct {
	sessionKey string
	challenge  string
}

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of authentication sessions to run")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		suite       = flag.String("suite", "OCRA-1:HOTP-SHA1-6:QH10-S", "OCRA suite")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "sessions and concurrency must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := ocrauth.Config{}
	cfg.OCRA.Suite = *suite
	cfg.Identity.Identifier = "loadtest.example.org"
	cfg.Identity.DisplayName = "Load Test"

	engine, err := ocrauth.New().
		WithConfig(cfg).
		WithRedis(client).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("starting %d sessions...\n", *sessions)
	states := make([]authSession, *sessions)
	startStats := runStartPhase(ctx, engine, states, *concurrency)

	fmt.Printf("authenticating %d sessions...\n", *sessions)
	authStats := runAuthenticatePhase(ctx, engine, states, *suite, *concurrency)

	fmt.Println("---- results ----")
	printStats("start", startStats)
	printStats("authenticate", authStats)
}

func runStartPhase(ctx context.Context, engine *ocrauth.Engine, states []authSession, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, len(states))
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				appSessionID := fmt.Sprintf("app-%d", i)
				t0 := time.Now()
				sessionKey, err := engine.StartAuthenticationSession(ctx, "", appSessionID, "")
				latencies[i] = time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				u, err := engine.AuthenticationURL(ctx, sessionKey)
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				states[i] = authSession{
					sessionKey: sessionKey,
					challenge:  challengeFromURL(u),
				}
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func runAuthenticatePhase(ctx context.Context, engine *ocrauth.Engine, states []authSession, suite string, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, len(states))
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= len(states) {
					return
				}
				state := states[i]
				if state.sessionKey == "" {
					atomic.AddInt64(&failures, 1)
					continue
				}
				response, err := ocra.ComputeResponse(suite, userSecret, "", state.challenge, "", state.sessionKey, "")
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				t0 := time.Now()
				result, err := engine.Authenticate(ctx, "u1", userSecret, state.sessionKey, response)
				latencies[i] = time.Since(t0)
				if err != nil || result != ocrauth.AuthResultAuthenticated {
					atomic.AddInt64(&failures, 1)
				}
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

func challengeFromURL(u string) string {
	// scheme://host/sessionKey/challenge/spID/version
	parts := strings.Split(u, "/")
	if len(parts) < 5 {
		return ""
	}
	return parts[len(parts)-3]
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return phaseStats{
		total:    total,
		ops:      len(sorted),
		failures: failures,
		p50:      percentile(sorted, 50),
		p95:      percentile(sorted, 95),
		p99:      percentile(sorted, 99),
		opsPerS:  float64(len(sorted)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
