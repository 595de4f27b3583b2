package chrono

import (
	"testing"
	"time"

	"guildexp/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

func TestValidateSpec(t *testing.T) {
	require.NoError(t, ValidateSpec("0 0 * * *"))
	require.NoError(t, ValidateSpec("@daily"))
	require.Error(t, ValidateSpec("every day at noon"))
	require.Error(t, ValidateSpec("0 0 0 * * *"))
}

func TestStandardCron(t *testing.T) {
	rec := telemetry.NewRecordingAPI()
	cronner := NewStandardCron(rec)
	defer func() {
		<-cronner.Stop().Done()
	}()

	fired := make(chan struct{}, 1)
	err := cronner.Cron("@every 1s", func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("cron job did not fire")
	}

	require.Error(t, cronner.Cron("not a spec", func() {}))
}

func TestFixedTime(t *testing.T) {
	at := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	require.Equal(t, at, FixedTime{Time: at}.Now())
}
