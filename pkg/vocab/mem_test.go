//go:build test

package vocab

import (
	"fmt"
	"runtime"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/vulyk/suggestserve/pkg/rank"
	"github.com/vulyk/suggestserve/pkg/score"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

var memQueries = []string{
	"к", "ки", "киї", "київ",
	"л", "ль", "льв", "львів",
	"х", "ха", "хар", "харк", "харків",
	"о д", "о де", "о д е с а",
	"ivano", "ivano fr", "zzz",
}

func memVocabulary(n int) *Vocabulary {
	base := []string{"Київ", "Львів", "Харків", "Одеса", "Дніпро", "Ivano-Frankivsk", "Черкаси", "Житомир"}
	terms := make([]string, 0, n)
	for i := 0; len(terms) < n; i++ {
		terms = append(terms, fmt.Sprintf("%s %d", base[i%len(base)], i))
	}
	return New(terms)
}

func heapAlloc() (uint64, int) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	return m.Alloc, runtime.NumGoroutine()
}

func TestMemoryRankRepeated(t *testing.T) {
	v := memVocabulary(2000)
	ranker := rank.NewRanker()

	for _, iterations := range []int{10, 50, 100} {
		t.Run(fmt.Sprintf("iterations_%d", iterations), func(t *testing.T) {
			baseline, baseGoroutines := heapAlloc()

			for i := 0; i < iterations; i++ {
				for _, q := range memQueries {
					_ = rank.Truncate(ranker.Rank(q, v.Candidates(score.Quicksilver{})), 10)
				}
			}

			final, goroutines := heapAlloc()
			memDelta := int64(final) - int64(baseline)
			ops := iterations * len(memQueries)
			t.Logf("iterations=%d ops=%d mem_delta=%d bytes mem_per_op=%.2f goroutine_delta=%d",
				iterations, ops, memDelta, float64(memDelta)/float64(ops), goroutines-baseGoroutines)

			if memDelta > 4*1024*1024 {
				t.Errorf("retained memory grew by %d bytes", memDelta)
			}
			if goroutines-baseGoroutines > 2 {
				t.Errorf("goroutine leak detected: %d goroutines leaked", goroutines-baseGoroutines)
			}
		})
	}
}

func TestMemoryConcurrentRankAndReplace(t *testing.T) {
	v := memVocabulary(1000)
	terms := v.Terms()
	baseline, baseGoroutines := heapAlloc()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				q := memQueries[(w+i)%len(memQueries)]
				entries := rank.Rank(q, v.Candidates(score.Fuzzy{}))
				if !entries[len(entries)-1].Literal {
					t.Errorf("missing literal entry for %q", q)
					return
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			v.Replace(terms[:len(terms)-i])
		}
	}()
	wg.Wait()

	final, goroutines := heapAlloc()
	t.Logf("mem_delta=%d bytes goroutine_delta=%d", int64(final)-int64(baseline), goroutines-baseGoroutines)
	if goroutines-baseGoroutines > 2 {
		t.Errorf("goroutine leak detected: %d goroutines leaked", goroutines-baseGoroutines)
	}
}

func BenchmarkRankQuicksilver(b *testing.B) {
	v := memVocabulary(5000)
	candidates := v.Candidates(score.Quicksilver{})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rank.Rank(memQueries[i%len(memQueries)], candidates)
	}
}

func BenchmarkWithPrefix(b *testing.B) {
	v := memVocabulary(5000)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		v.WithPrefix("Київ", 10)
	}
}
