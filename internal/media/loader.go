package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

// ImageLoadError reports a product image that could not be fetched or
// decoded. It is fatal to the single render that needed the image, not to
// a whole batch.
type ImageLoadError struct {
	Ref string
	Err error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Ref, e.Err)
}

func (e *ImageLoadError) Unwrap() error {
	return e.Err
}

// Loader fetches and decodes product images from URLs or local paths
type Loader struct {
	httpClient *http.Client
	limiter    *ratelimit.MultiLimiter
	log        *logger.Logger
}

// NewLoader creates an image loader
func NewLoader(limiter *ratelimit.MultiLimiter, log *logger.Logger) *Loader {
	return &Loader{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		log:     log.WithComponent("media"),
	}
}

// Load resolves an image reference. HTTP(S) references are fetched,
// anything else is treated as a local file path.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	if ref == "" {
		return nil, &ImageLoadError{Ref: ref, Err: fmt.Errorf("empty image reference")}
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return l.fetch(ctx, ref)
	}
	return l.open(ref)
}

func (l *Loader) fetch(ctx context.Context, url string) (image.Image, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx, ratelimit.LimiterImages); err != nil {
			return nil, &ImageLoadError{Ref: url, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, &ImageLoadError{Ref: url, Err: err}
	}

	l.log.Debug().Str("url", url).Msg("Fetching product image")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, &ImageLoadError{Ref: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ImageLoadError{Ref: url, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	img, format, err := image.Decode(resp.Body)
	if err != nil {
		return nil, &ImageLoadError{Ref: url, Err: err}
	}

	l.log.Debug().Str("format", format).Msg("Decoded product image")
	return img, nil
}

func (l *Loader) open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ImageLoadError{Ref: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &ImageLoadError{Ref: path, Err: err}
	}
	return img, nil
}
