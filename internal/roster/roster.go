package roster

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"guildexp/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("guildexp/internal/roster")

// ErrFetch marks a roster that could not be retrieved or decoded.
var ErrFetch = errors.New("fetch roster")

const DefaultBaseUrl = "https://api.tibiadata.com"

type Options struct {
	BaseUrl string
	// how long the guild names of a world are reused, defaults to 15 minutes
	CacheTTL time.Duration
	Output   restyutil.InstrumentOutput
}

// Client lists the guilds of a world through the TibiaData v4 api.
type Client struct {
	http  *resty.Client
	cache *expirable.LRU[string, []string]
}

func NewClient(opts Options) Client {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.CacheTTL == 0 {
		opts.CacheTTL = time.Minute * 15
	}
	return Client{
		http: restyutil.NewClient(restyutil.ClientOptions{
			Name:    "guildexp/internal/roster",
			BaseUrl: strings.TrimSuffix(opts.BaseUrl, "/"),
			Output:  opts.Output,
		}),
		cache: expirable.NewLRU[string, []string](64, nil, opts.CacheTTL),
	}
}

type guildEntry struct {
	Name *string `json:"name"`
}

type guildsResponse struct {
	Guilds struct {
		World string `json:"world"`
		// older responses (and some mirrors) list every guild here
		GuildsList []guildEntry `json:"guilds_list"`
		Active     []guildEntry `json:"active"`
	} `json:"guilds"`
}

// names trims, drops empty names and dedupes while keeping the first
// occurrence of each name.
func (r guildsResponse) names() []string {
	seen := map[string]bool{}
	out := []string{}
	for _, list := range [][]guildEntry{r.Guilds.GuildsList, r.Guilds.Active} {
		for _, entry := range list {
			if entry.Name == nil {
				continue
			}
			name := strings.TrimSpace(*entry.Name)
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// GuildNames returns the distinct guild names of a world in roster order.
func (c Client) GuildNames(ctx context.Context, world string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "roster:guild-names")
	defer span.End()
	span.SetAttributes(attribute.String("world", world))

	cached, hit := c.cache.Get(world)
	if hit {
		span.SetAttributes(attribute.Bool("cached", true))
		return cached, nil
	}

	var body guildsResponse
	_, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		ForceContentType("application/json").
		Get(fmt.Sprintf("/v4/guilds/%s", url.PathEscape(world)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w for world %q: %w", ErrFetch, world, err)
	}

	names := body.names()
	if len(names) > 0 {
		c.cache.Add(world, names)
	}
	span.SetAttributes(attribute.Int("guilds", len(names)))
	return names, nil
}
