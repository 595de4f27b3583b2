package telemetry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := NewRecordingAPI()
	scoped := NewScopedAPI("pipeline", NewScopedAPI("guild", rec))

	scoped.ReportBroken("fetch-listing", "Fellowship")
	scoped.ReportWarning("empty-roster")
	scoped.ReportCount("snapshots", 3)

	broken := rec.Reports(KindBroken)
	require.Len(t, broken, 1)
	require.Equal(t, "guild: pipeline: fetch-listing", broken[0].ID)
	require.Equal(t, []any{"Fellowship"}, broken[0].Params)

	require.Len(t, rec.Find(KindWarning, "empty-roster"), 1)
	require.Len(t, rec.Find(KindWarning, "fetch-listing"), 0)

	counts := rec.Reports(KindCount)
	require.Len(t, counts, 1)
	require.Equal(t, int64(3), counts[0].Count)
}

func TestRecordingAPIConcurrent(t *testing.T) {
	rec := NewRecordingAPI()

	wg := sync.WaitGroup{}
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.ReportDebug("tick")
		}()
	}
	wg.Wait()

	require.Len(t, rec.Reports(KindDebug), 32)
}
