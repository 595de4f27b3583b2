package roster

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGuildNames(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.EscapedPath() {
		case "/v4/guilds/Antica":
			fmt.Fprint(w, `{"guilds": {"world": "Antica", "guilds_list": [
				{"name": " Fellowship "},
				{"name": ""},
				{"name": null},
				{"name": "Red Rose"},
				{"name": "Fellowship"}
			], "active": [{"name": "Red Rose"}, {"name": "Night Watch"}]}}`)
		case "/v4/guilds/Empty":
			fmt.Fprint(w, `{"guilds": {"world": "Empty"}}`)
		case "/v4/guilds/Garbage":
			fmt.Fprint(w, `<html>not json</html>`)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(Options{BaseUrl: server.URL})
	ctx := context.Background()

	names, err := client.GuildNames(ctx, "Antica")
	require.NoError(t, err)
	require.Equal(t, []string{"Fellowship", "Red Rose", "Night Watch"}, names)

	// second call is served from the cache
	names, err = client.GuildNames(ctx, "Antica")
	require.NoError(t, err)
	require.Len(t, names, 3)
	require.Equal(t, int32(1), hits.Load())

	names, err = client.GuildNames(ctx, "Empty")
	require.NoError(t, err)
	require.Empty(t, names)

	_, err = client.GuildNames(ctx, "Garbage")
	require.ErrorIs(t, err, ErrFetch)

	_, err = client.GuildNames(ctx, "Down")
	require.ErrorIs(t, err, ErrFetch)
}
