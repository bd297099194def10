// Standalone load generator for the node cache. Reports throughput and hit
// rate for a mixed read/write workload at a configurable key-space size and
// concurrency level.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	nodecache "github.com/fsbrowse/nodecache"
	"github.com/fsbrowse/nodecache/types"
)

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	removals  atomic.Int64
}

func (c *counters) Hit()      { c.hits.Add(1) }
func (c *counters) Miss()     { c.misses.Add(1) }
func (c *counters) Eviction() { c.evictions.Add(1) }
func (c *counters) Removal()  { c.removals.Add(1) }

func main() {
	capacity := flag.Int("capacity", 10000, "max cached nodes")
	maxMemoryMB := flag.Int("max-memory-mb", 64, "memory ceiling in MB")
	keySpace := flag.Int("keys", 50000, "distinct keys in the workload")
	goroutines := flag.Int("goroutines", 8, "concurrent workers")
	ops := flag.Int("ops", 1000000, "total operations")
	readPct := flag.Int("read-pct", 90, "percentage of operations that are reads")
	flag.Parse()

	stats := &counters{}
	cache := nodecache.MustNew(*capacity, *maxMemoryMB, nodecache.WithMetrics(stats))
	defer cache.Close()

	keys := make([]string, *keySpace)
	for i := range keys {
		keys[i] = fmt.Sprintf("/bench/dir-%d/node-%d", i%100, i)
	}

	// Warm the cache to capacity before timing.
	for i := 0; i < *capacity && i < len(keys); i++ {
		cache.Set(keys[i], &types.Node{Name: keys[i], Path: keys[i], IsDir: true})
	}

	perWorker := *ops / *goroutines
	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < *goroutines; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < perWorker; i++ {
				key := keys[rng.Intn(len(keys))]
				if rng.Intn(100) < *readPct {
					cache.Get(key)
				} else {
					cache.Set(key, &types.Node{Name: key, Path: key, IsDir: true})
				}
			}
		}(int64(w) + 1)
	}
	wg.Wait()

	elapsed := time.Since(start)
	total := *goroutines * perWorker
	hits := stats.hits.Load()
	misses := stats.misses.Load()

	fmt.Println("==================== BENCHMARK ====================")
	fmt.Printf("OPS        : %d in %s\n", total, elapsed.Round(time.Millisecond))
	fmt.Printf("THROUGHPUT : %.0f ops/sec\n", float64(total)/elapsed.Seconds())
	fmt.Printf("HITS       : %d\n", hits)
	fmt.Printf("MISSES     : %d\n", misses)
	if hits+misses > 0 {
		fmt.Printf("HIT RATE   : %.1f%%\n", 100*float64(hits)/float64(hits+misses))
	}
	fmt.Printf("EVICTIONS  : %d\n", stats.evictions.Load())
	fmt.Printf("CACHED     : %d entries, %d bytes\n", cache.Len(), cache.MemoryUsage())
}
