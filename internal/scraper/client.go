package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"guildexp/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("guildexp/internal/scraper")

// ErrFetch marks a listing that could not be retrieved, it is recoverable
// and only affects the guild it was fetched for.
var ErrFetch = errors.New("fetch listing")

const guildPlaceholder = "{guild}"

type Options struct {
	// URLTemplate must contain "{guild}", it is replaced by the escaped guild name.
	URLTemplate string
	Output      restyutil.InstrumentOutput
}

type Client struct {
	urlTemplate string
	http        *resty.Client
}

func NewClient(opts Options) (Client, error) {
	if !strings.Contains(opts.URLTemplate, guildPlaceholder) {
		return Client{}, fmt.Errorf("url template %q does not contain %s", opts.URLTemplate, guildPlaceholder)
	}
	return Client{
		urlTemplate: opts.URLTemplate,
		http: restyutil.NewClient(restyutil.ClientOptions{
			Name:   "guildexp/internal/scraper",
			Output: opts.Output,
		}),
	}, nil
}

// ListingURL renders the listing url of a guild, spaces are encoded as %20.
func (c Client) ListingURL(guild string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(guild), "+", "%20")
	return strings.ReplaceAll(c.urlTemplate, guildPlaceholder, escaped)
}

// Listing downloads the raw listing document of a guild.
func (c Client) Listing(ctx context.Context, guild string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "scraper:listing")
	defer span.End()
	span.SetAttributes(attribute.String("guild", guild))

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.ListingURL(guild))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w %q: %w", ErrFetch, guild, err)
	}
	return res.Body(), nil
}
