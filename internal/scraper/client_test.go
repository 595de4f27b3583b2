package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClientValidatesTemplate(t *testing.T) {
	_, err := NewClient(Options{URLTemplate: "https://example.com/guild"})
	require.Error(t, err)
}

func TestListingURL(t *testing.T) {
	client, err := NewClient(Options{URLTemplate: "https://example.com/guilds/{guild}/exp?page={guild}"})
	require.NoError(t, err)

	require.Equal(
		t,
		"https://example.com/guilds/Red%20Rose%26Co/exp?page=Red%20Rose%26Co",
		client.ListingURL("Red Rose&Co"),
	)
}

func TestListing(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.RawQuery
		if r.URL.Query().Get("guild") == "Broken" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, listingDocument(listingRow("Alice", "1,000")))
	}))
	defer server.Close()

	client, err := NewClient(Options{URLTemplate: server.URL + "/listing?guild={guild}"})
	require.NoError(t, err)

	body, err := client.Listing(context.Background(), "Fellowship of Light")
	require.NoError(t, err)
	require.Equal(t, "guild=Fellowship%20of%20Light", requested)
	require.Contains(t, string(body), "Alice")

	_, err = client.Listing(context.Background(), "Broken")
	require.ErrorIs(t, err, ErrFetch)
}

func TestListingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := NewClient(Options{URLTemplate: url + "/{guild}"})
	require.NoError(t, err)

	_, err = client.Listing(context.Background(), "Fellowship")
	require.ErrorIs(t, err, ErrFetch)
}
