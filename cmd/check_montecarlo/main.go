package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"time"

	"parlay-lab/internal/montecarlo"
)

// Prints Monte-Carlo P(over) next to the closed-form normal survival for a
// grid of lines, to eyeball convergence at a given sim count.
func main() {
	sims := flag.Int("sims", 20000, "simulations per request")
	seed := flag.Int64("seed", 42, "random seed (0 = clock)")
	workers := flag.Int("workers", 0, "worker goroutines (0 = NumCPU)")
	flag.Parse()

	pool := montecarlo.NewPool(montecarlo.PoolConfig{Workers: *workers, Seed: *seed})
	defer pool.Close()

	scenarios := []struct {
		name      string
		projected float64
		sigma     float64
		current   float64
	}{
		{"points, halftime", 27.5, 5.5, 14},
		{"rebounds, Q3", 10.5, 2.5, 7},
		{"threes, Q4", 3.2, 0.9, 2},
		{"no variance left", 22, 0, 22},
	}

	ctx := context.Background()
	fmt.Println("=== MONTE-CARLO vs ANALYTIC ===")

	for _, sc := range scenarios {
		fmt.Printf("\n%s (proj=%.1f sigma=%.1f cur=%.0f, %d sims)\n", sc.name, sc.projected, sc.sigma, sc.current, *sims)

		var reqs []montecarlo.Request
		for off := -6.0; off <= 6.0; off += 2 {
			line := math.Round(sc.projected+off) + 0.5
			reqs = append(reqs, montecarlo.Request{
				ID:           fmt.Sprintf("%s@%.1f", sc.name, line),
				Projected:    sc.projected,
				SigmaRem:     sc.sigma,
				Line:         line,
				CurrentValue: sc.current,
				SimCount:     *sims,
			})
		}

		start := time.Now()
		var worst float64
		for _, req := range reqs {
			resp, err := pool.Do(ctx, req)
			if err != nil {
				fmt.Printf("  line %5.1f  ERROR %v\n", req.Line, err)
				continue
			}
			analytic := montecarlo.Analytic(req)
			diff := resp.POver - analytic
			worst = math.Max(worst, math.Abs(diff))
			fmt.Printf("  line %5.1f  mc=%5.1f%%  analytic=%5.1f%%  diff=%+.2f%%\n",
				req.Line, resp.POver*100, analytic*100, diff*100)
		}
		fmt.Printf("  worst |diff| %.2f%% in %v\n", worst*100, time.Since(start).Round(time.Millisecond))
	}
}
