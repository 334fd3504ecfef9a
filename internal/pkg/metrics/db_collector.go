package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// ObservePool samples pool statistics into DBPoolConnections and DBPoolAcquireWait.
func ObservePool(pool *pgxpool.Pool) {
	stat := pool.Stat()

	for state, n := range map[string]int32{
		"in_use":       stat.AcquiredConns(),
		"idle":         stat.IdleConns(),
		"constructing": stat.ConstructingConns(),
		"total":        stat.TotalConns(),
		"max":          stat.MaxConns(),
	} {
		DBPoolConnections.WithLabelValues(state).Set(float64(n))
	}
	DBPoolAcquireWait.Set(stat.AcquireDuration().Seconds())
}
