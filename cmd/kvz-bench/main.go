// kvz-bench measures request latency against a running kvz server: N
// client goroutines, each with its own session, mixing GET and PUT by
// ratio, reporting percentiles and throughput.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kvz-io/kvz/internal/client"
	"github.com/kvz-io/kvz/internal/observability"
	"github.com/kvz-io/kvz/internal/protocol"
)

type options struct {
	connect       string
	threads       int
	iters         int
	getRatio      float64
	valueSize     int
	keysPerThread int
	warmup        int
	csv           bool
}

type stats struct {
	latUs []uint32
	puts  int
	gets  int
}

func (s *stats) merge(o stats) {
	s.latUs = append(s.latUs, o.latUs...)
	s.puts += o.puts
	s.gets += o.gets
}

func main() {
	logger := observability.InitLogger("kvz-bench")

	var opts options
	flag.StringVar(&opts.connect, "connect", "tcp://127.0.0.1:5555", "endpoint to connect to")
	flag.IntVar(&opts.threads, "threads", 8, "number of client goroutines")
	flag.IntVar(&opts.iters, "iters", 50_000, "timed iterations per goroutine")
	flag.Float64Var(&opts.getRatio, "get-ratio", 0.9, "fraction of GET ops (0.0..=1.0)")
	flag.IntVar(&opts.valueSize, "value-size", 256, "bytes of value payload")
	flag.IntVar(&opts.keysPerThread, "keys-per-thread", 64, "distinct keys per goroutine")
	flag.IntVar(&opts.warmup, "warmup", 5_000, "warmup ops per goroutine (not measured)")
	flag.BoolVar(&opts.csv, "csv", false, "print per-op CSV (op,us) to stdout")
	flag.Parse()

	if opts.getRatio < 0 || opts.getRatio > 1 {
		logger.Fatal().Float64("get_ratio", opts.getRatio).Msg("-get-ratio must be between 0.0 and 1.0")
	}
	if opts.threads < 1 || opts.iters < 1 || opts.keysPerThread < 1 || opts.valueSize < 0 {
		logger.Fatal().Msg("-threads, -iters and -keys-per-thread must be >= 1, -value-size >= 0")
	}

	benchStart := time.Now()
	results := make(chan stats, opts.threads)
	start := make(chan struct{})
	var warmed sync.WaitGroup
	warmed.Add(opts.threads)

	var wg sync.WaitGroup
	for tid := 0; tid < opts.threads; tid++ {
		wg.Add(1)
		go func(tid int) {
			defer wg.Done()
			s, err := runWorker(tid, opts, &warmed, start, logger)
			if err != nil {
				logger.Error().Err(err).Int("worker", tid).Msg("worker error")
			}
			results <- s
		}(tid)
	}

	// Release all workers together once every one has finished warming,
	// with a moment for the server to drain.
	go func() {
		warmed.Wait()
		time.Sleep(50 * time.Millisecond)
		close(start)
	}()

	wg.Wait()
	close(results)

	var agg stats
	for s := range results {
		agg.merge(s)
	}

	wall := time.Since(benchStart)
	totalOps := len(agg.latUs)
	if totalOps == 0 {
		logger.Fatal().Msg("no operations completed")
	}

	if opts.csv {
		printCSV(agg)
	}
	printSummary(opts, agg, wall)
}

func runWorker(tid int, opts options, warmed *sync.WaitGroup, start <-chan struct{}, logger zerolog.Logger) (stats, error) {
	var s stats

	// Exactly one Done regardless of which path exits.
	warmDone := sync.OnceFunc(warmed.Done)
	defer warmDone()

	sess, err := client.Dial(context.Background(), opts.connect, client.Config{}, logger)
	if err != nil {
		return s, err
	}
	defer sess.Close()

	rng := rand.New(rand.NewSource(0xC0FFEE + int64(tid)))
	value := make([]byte, opts.valueSize)
	rng.Read(value)

	keys := make([]string, opts.keysPerThread)
	prefix := fmt.Sprintf("bench-%d-%s-", tid, randSuffix(rng, 6))
	for i := range keys {
		keys[i] = fmt.Sprintf("%s%d", prefix, i)
	}

	// Preload keys so the timed GETs hit.
	baseTS := uint64(time.Now().UnixMilli())
	for i := 0; i < opts.warmup; i++ {
		k := keys[i%len(keys)]
		if _, err := sess.Put(k, baseTS+uint64(i), value); err != nil {
			return s, err
		}
		if i%128 == 0 && len(value) > 0 {
			value[rng.Intn(len(value))] ^= byte(i) * 31
		}
	}
	warmDone()
	<-start

	s.latUs = make([]uint32, 0, opts.iters)
	tsCounter := baseTS + uint64(opts.warmup)

	for i := 0; i < opts.iters; i++ {
		doGet := rng.Float64() < opts.getRatio
		key := keys[i%len(keys)]

		t0 := time.Now()
		if doGet {
			_, found, err := sess.Get(key)
			if err != nil {
				return s, err
			}
			if !found {
				// Should not happen after warmup; reseed the key.
				if _, err := sess.Put(key, tsCounter, value); err != nil {
					return s, err
				}
			}
			s.gets++
		} else {
			tsCounter++
			if len(value) > 0 {
				value[(i+tid)%len(value)] ^= byte(i) * 13
			}
			out, err := sess.Put(key, tsCounter, value)
			if err != nil {
				return s, err
			}
			// Clock skew against another writer: bump and retry once.
			if out == protocol.PutStale {
				tsCounter++
				if _, err := sess.Put(key, tsCounter, value); err != nil {
					return s, err
				}
			}
			s.puts++
		}
		s.latUs = append(s.latUs, uint32(time.Since(t0).Microseconds()))
	}
	return s, nil
}

func randSuffix(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(b)
}

func printCSV(agg stats) {
	fmt.Println("op,us")
	for _, us := range agg.latUs {
		fmt.Printf("op,%d\n", us)
	}
}

func printSummary(opts options, agg stats, wall time.Duration) {
	slices.Sort(agg.latUs)
	n := len(agg.latUs)
	q := func(p float64) uint32 {
		idx := int(math.Round(p * float64(n-1)))
		return agg.latUs[idx]
	}
	var sum uint64
	for _, us := range agg.latUs {
		sum += uint64(us)
	}
	avg := float64(sum) / float64(n)
	throughput := float64(n) / wall.Seconds()

	w := os.Stderr
	fmt.Fprintln(w, "== kvz latency benchmark ==")
	fmt.Fprintf(w, "endpoint       : %s\n", opts.connect)
	fmt.Fprintf(w, "threads        : %d\n", opts.threads)
	fmt.Fprintf(w, "iters/thread   : %d\n", opts.iters)
	fmt.Fprintf(w, "get_ratio      : %.3f\n", opts.getRatio)
	fmt.Fprintf(w, "value_size     : %d B\n", opts.valueSize)
	fmt.Fprintf(w, "keys/thread    : %d\n", opts.keysPerThread)
	fmt.Fprintf(w, "warmup/thread  : %d\n", opts.warmup)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "ops total      : %d\n", n)
	fmt.Fprintf(w, "ops GET/PUT    : %d/%d\n", agg.gets, agg.puts)
	fmt.Fprintf(w, "throughput     : %8.0f ops/s\n", throughput)
	fmt.Fprintf(w, "latency (us)   : p50 %6d  p95 %6d  p99 %6d  p99.9 %6d  p99.99 %6d  max %6d  avg %7.1f\n",
		q(0.50), q(0.95), q(0.99), q(0.999), q(0.9999), agg.latUs[n-1], avg)
}
