package restyutil

import (
	"fmt"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	// Name is used as the tracer name of the client.
	Name    string
	BaseUrl string
	// if unspecified, it defaults to 30 seconds
	Timeout time.Duration
	// if unspecified, a desktop browser user agent is sent
	UserAgent string
	Output    InstrumentOutput
}

// NewClient creates a resty client with the cloudflare bypass transport,
// instrumentation and a non-2xx status treated as an error.
func NewClient(opts ClientOptions) *resty.Client {
	client := resty.New()
	if opts.BaseUrl != "" {
		client.SetBaseURL(opts.BaseUrl)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client.SetHeader("user-agent", userAgent)

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	client.SetTimeout(timeout)

	InstrumentClient(client, otel.Tracer(opts.Name), opts.Output)

	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		if res.IsError() {
			return fmt.Errorf("unexpected status %s from %s", res.Status(), res.Request.URL)
		}
		return nil
	})

	return client
}
