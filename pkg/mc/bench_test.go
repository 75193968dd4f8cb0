package mc

import (
	"context"
	"fmt"
	"testing"

	"golang.org/x/exp/rand"
)

// BenchmarkPath 单条路径生成
// 关注点：每条路径的 ns/op 和 allocs/op
func BenchmarkPath(b *testing.B) {
	p := atmParams()

	for _, st := range Strategies() {
		b.Run(st.Name(), func(b *testing.B) {
			path, err := st.Prepare(p)
			if err != nil {
				b.Fatal(err)
			}
			src := rand.New(rand.NewSource(1))

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = path(src)
			}
		})
	}
}

// BenchmarkEstimatorWorkers 整次估计随 worker 数的扩展
func BenchmarkEstimatorWorkers(b *testing.B) {
	p := atmParams().WithTrials(20000)

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			e := NewEstimator(EstimatorConfig{Workers: workers, ChunkSize: DefaultChunkSize, Seed: 1, Quiet: true})

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := e.Run(context.Background(), p, &Diffusion{}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
