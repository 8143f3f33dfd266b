package fallback

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotunisia/internal/models"
	"github.com/desertthunder/spotunisia/internal/services"
	"github.com/desertthunder/spotunisia/internal/shared"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var videoIDPattern = regexp.MustCompile(`watch\?v=([a-zA-Z0-9_-]{11})`)

// Kind says what a [Resolution] found.
type Kind int

const (
	KindNone Kind = iota
	KindStream
	KindPage
)

func (k Kind) String() string {
	switch k {
	case KindStream:
		return "stream"
	case KindPage:
		return "page"
	default:
		return "none"
	}
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Notice is the user-facing outcome of a resolution.
type Notice string

const (
	NoticeResolved   Notice = "Found audio for this song"
	NoticeSearchMiss Notice = "Couldn't find this song"
	NoticeStreamMiss Notice = "No audio stream available"
	NoticeNetwork    Notice = "Couldn't reach the audio search"
	NoticePageOpened Notice = "Opened the song page in your browser"
)

// Resolution is the result of [Resolver.Resolve].
type Resolution struct {
	URL     string `json:"url,omitempty"`
	Kind    Kind   `json:"kind"`
	VideoID string `json:"video_id,omitempty"`
	Notice  Notice `json:"notice"`
}

// Error lets a [Resolution] without a stream be returned as an error.
type Error struct {
	Resolution Resolution
}

func (e *Error) Error() string { return string(e.Resolution.Notice) }

func (e *Error) Is(target error) bool { return target == shared.ErrNoSource }

// Options configures the endpoints a [Resolver] talks to.
type Options struct {
	RelayURL          string
	SearchURL         string
	StreamURL         string
	WatchURL          string
	RequestsPerSecond float64
	Opener            shared.Opener
	Logger            *log.Logger
}

// OptionsFromConfig maps the fallback config section onto [Options].
func OptionsFromConfig(cfg shared.FallbackConfig) Options {
	return Options{
		RelayURL:          cfg.RelayURL,
		SearchURL:         cfg.SearchURL,
		StreamURL:         cfg.StreamURL,
		WatchURL:          cfg.WatchURL,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}
}

// Resolver looks up external audio for tracks.
type Resolver struct {
	api     *services.APIService
	opts    Options
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	open    shared.Opener
	logger  *log.Logger
}

// NewResolver creates a resolver fetching through api.
func NewResolver(api *services.APIService, opts Options) *Resolver {
	if api == nil {
		api = services.NewAPIService(nil)
	}
	if opts.SearchURL == "" {
		opts.SearchURL = "https://www.youtube.com/results"
	}
	if opts.StreamURL == "" {
		opts.StreamURL = "https://pipedapi.kavin.rocks"
	}
	if opts.WatchURL == "" {
		opts.WatchURL = "https://www.youtube.com/watch"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Opener == nil {
		opts.Opener = shared.OpenBrowser
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	settings := gobreaker.Settings{
		Name:        "stream-lookup",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			opts.Logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}

	return &Resolver{
		api:     api,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
		open:    opts.Opener,
		logger:  opts.Logger,
	}
}

// Query builds the search text for track.
func Query(track models.Track) string {
	return strings.TrimSpace(fmt.Sprintf("%s %s audio", track.Title, track.Artist.Name))
}

// Resolve finds a stream for track, opening the video page when only a page is available.
func (r *Resolver) Resolve(ctx context.Context, track models.Track) Resolution {
	res := r.lookup(ctx, track)
	if res.Kind == KindPage {
		r.openPage(&res)
	}
	return res
}

// Source adapts [Resolver.Resolve] to the player's source lookup.
func (r *Resolver) Source(ctx context.Context, track models.Track) (string, error) {
	res := r.Resolve(ctx, track)
	if res.Kind != KindStream {
		return "", &Error{Resolution: res}
	}
	return res.URL, nil
}

// lookup resolves without side effects. A page result carries the page URL.
func (r *Resolver) lookup(ctx context.Context, track models.Track) Resolution {
	query := Query(track)
	id, err := r.Search(ctx, query)
	if err != nil {
		r.logger.Warn("fallback search failed", "query", query, "error", err)
		return Resolution{Kind: KindNone, Notice: NoticeNetwork}
	}
	if id == "" {
		r.logger.Info("fallback search found nothing", "query", query)
		return Resolution{Kind: KindNone, Notice: NoticeSearchMiss}
	}

	stream, err := r.Stream(ctx, id)
	if err != nil || stream == "" {
		r.logger.Info("no stream for video, degrading to page", "video_id", id, "error", err)
		return Resolution{URL: r.WatchURL(id), Kind: KindPage, VideoID: id, Notice: NoticeStreamMiss}
	}

	return Resolution{URL: stream, Kind: KindStream, VideoID: id, Notice: NoticeResolved}
}

func (r *Resolver) openPage(res *Resolution) {
	if err := r.open(res.URL); err != nil {
		r.logger.Warn("failed to open page", "url", res.URL, "error", err)
		return
	}
	res.Notice = NoticePageOpened
}

// WatchURL returns the page URL for a video id.
func (r *Resolver) WatchURL(id string) string {
	return r.opts.WatchURL + "?v=" + url.QueryEscape(id)
}

// SearchURL returns the relayed search results URL for query.
func (r *Resolver) SearchURL(query string) string {
	target := r.opts.SearchURL + "?search_query=" + url.QueryEscape(query)
	if r.opts.RelayURL == "" {
		return target
	}
	return r.opts.RelayURL + url.QueryEscape(target)
}

// Search returns the first video id on the results page for query, or "" when there is none.
func (r *Resolver) Search(ctx context.Context, query string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := r.api.Get(ctx, r.SearchURL(query))
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: search returned status %d", shared.ErrServiceUnavailable, resp.StatusCode)
	}
	return FirstVideoID(resp.Body), nil
}

// FirstVideoID finds the first watch link in an HTML page. Links rendered by script are
// caught by scanning the raw body.
func FirstVideoID(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err == nil {
		var id string
		doc.Find(`a[href*="watch?v="]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			href, _ := s.Attr("href")
			if m := videoIDPattern.FindStringSubmatch(href); m != nil {
				id = m[1]
				return false
			}
			return true
		})
		if id != "" {
			return id
		}
	}

	if m := videoIDPattern.FindSubmatch(body); m != nil {
		return string(m[1])
	}
	return ""
}

// Stream returns the highest bitrate audio stream URL for a video id.
//
// Calls go through a circuit breaker so a dead lookup host fails fast.
func (r *Resolver) Stream(ctx context.Context, id string) (string, error) {
	out, err := r.breaker.Execute(func() (any, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := r.api.Get(ctx, strings.TrimRight(r.opts.StreamURL, "/")+"/streams/"+url.PathEscape(id))
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, fmt.Errorf("%w: streams returned status %d", shared.ErrServiceUnavailable, resp.StatusCode)
		}
		return bestAudioStream(resp), nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
		}
		return "", err
	}
	return out.(string), nil
}

func bestAudioStream(resp *services.APIResponse) string {
	var (
		best    string
		bitrate int64 = -1
	)
	for _, s := range resp.JSON("audioStreams").Array() {
		u := s.Get("url").String()
		if u == "" {
			continue
		}
		if b := s.Get("bitrate").Int(); b > bitrate {
			best, bitrate = u, b
		}
	}
	return best
}
