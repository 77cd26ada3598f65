package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"gastbook/pkg/client"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// latencies collects per-operation timings from every worker.
type latencies struct {
	mu      sync.Mutex
	samples map[string][]time.Duration
	errors  map[string]int
}

func newLatencies() *latencies {
	return &latencies{samples: make(map[string][]time.Duration), errors: make(map[string]int)}
}

func (l *latencies) record(op string, start time.Time, err error) {
	d := time.Since(start)
	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.errors[op]++
		return
	}
	l.samples[op] = append(l.samples[op], d)
}

func (l *latencies) report(took time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops := make([]string, 0, len(l.samples)+len(l.errors))
	seen := make(map[string]bool)
	for op := range l.samples {
		ops, seen[op] = append(ops, op), true
	}
	for op := range l.errors {
		if !seen[op] {
			ops = append(ops, op)
		}
	}
	sort.Strings(ops)

	fmt.Printf("\n%-10s %8s %8s %10s %10s %10s\n", "op", "ok", "failed", "p50", "p95", "max")
	total := 0
	for _, op := range ops {
		s := l.samples[op]
		sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
		total += len(s)
		fmt.Printf("%-10s %8d %8d %10v %10v %10v\n", op, len(s), l.errors[op], pct(s, 50), pct(s, 95), pct(s, 100))
	}
	fmt.Printf("\ntook %v, %.1f ok req/s, %d goroutines\n", took.Round(time.Millisecond), float64(total)/took.Seconds(), runtime.NumGoroutine())
}

func pct(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	i := (len(sorted)*p + 99) / 100
	if i < 1 {
		i = 1
	}
	return sorted[i-1].Round(time.Microsecond)
}

// worker registers a fresh user, then posts, reads the public feed and
// likes what it finds.
func worker(ctx context.Context, baseURL string, rounds int, stats *latencies) {
	c := client.New(baseURL)
	name := "bench_" + uuid.NewString()[:8]

	start := time.Now()
	_, err := c.Register(ctx, name, name+"@bench.local", "bench-password")
	stats.record("register", start, err)
	if err != nil {
		return
	}

	for i := 0; i < rounds; i++ {
		start = time.Now()
		_, err := c.CreatePost(ctx, fmt.Sprintf("bench post %d from %s", i, name), "public")
		stats.record("post", start, err)

		start = time.Now()
		page, err := c.Feed(ctx, "public", "", 20)
		stats.record("feed", start, err)
		if err != nil || len(page.Items) == 0 {
			continue
		}

		target := page.Items[rand.Intn(len(page.Items))]
		start = time.Now()
		err = client.NewLikeButton(&target).Toggle(ctx, c)
		stats.record("like", start, err)
	}
}

func main() {
	var (
		baseURL     string
		concurrency int
		rounds      int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a running gastbook server with concurrent users",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			if _, err := client.New(baseURL).Health(ctx); err != nil {
				return fmt.Errorf("server not healthy at %s: %w", baseURL, err)
			}
			fmt.Printf("target %s, %d users x %d rounds\n", baseURL, concurrency, rounds)

			stats := newLatencies()
			var wg sync.WaitGroup
			start := time.Now()
			for i := 0; i < concurrency; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					worker(ctx, baseURL, rounds, stats)
				}()
			}
			wg.Wait()

			stats.report(time.Since(start))
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "server base URL")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 10, "concurrent users")
	cmd.Flags().IntVarP(&rounds, "rounds", "n", 20, "post/feed/like rounds per user")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall deadline")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
