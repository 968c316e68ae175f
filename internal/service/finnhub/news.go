package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	drepo "FinSignal/internal/domain/repository"
	"FinSignal/internal/service/cache"
	xhttp "FinSignal/pkg/http"
	"FinSignal/pkg/logger"
)

const newsCachePrefix = "finsignal:news:"

type NewsConfig struct {
	APIKey   string
	BaseURL  string
	Lookback time.Duration
	MaxItems int
	Timeout  time.Duration
	CacheTTL time.Duration
}

// NewsClient reads company news from the Finnhub REST API.
type NewsClient struct {
	cfg    NewsConfig
	client *xhttp.Client
	cache  cache.BytesCache
	log    *logger.Logger
	now    func() time.Time
}

// NewNewsClient accepts a nil cache.
func NewNewsClient(cfg NewsConfig, c cache.BytesCache, log *logger.Logger) *NewsClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://finnhub.io/api/v1"
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 72 * time.Hour
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 20
	}
	if log == nil {
		log = logger.Nop()
	}
	return &NewsClient{
		cfg:    cfg,
		client: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout)),
		cache:  c,
		log:    log,
		now:    time.Now,
	}
}

type companyNews struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// RecentNews returns up to MaxItems headline texts, newest first.
func (c *NewsClient) RecentNews(ctx context.Context, symbol string) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	key := newsCachePrefix + symbol

	if c.cache != nil {
		if b, ok, err := c.cache.GetBytes(ctx, key); err != nil {
			c.log.Warn("news cache read failed", logger.Error(err))
		} else if ok {
			var texts []string
			if json.Unmarshal(b, &texts) == nil {
				return texts, nil
			}
		}
	}

	to := c.now().UTC()
	from := to.Add(-c.cfg.Lookback)
	var items []companyNews
	err := c.client.GetJSON(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/company-news", map[string][]string{
		"symbol": {symbol},
		"from":   {from.Format(time.DateOnly)},
		"to":     {to.Format(time.DateOnly)},
		"token":  {c.cfg.APIKey},
	}, &items)
	if err != nil {
		return nil, fmt.Errorf("finnhub company news %s: %w", symbol, err)
	}

	texts := c.texts(items, from)
	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if b, err := json.Marshal(texts); err == nil {
			if err := c.cache.SetBytes(ctx, key, b, c.cfg.CacheTTL); err != nil {
				c.log.Warn("news cache write failed", logger.Error(err))
			}
		}
	}
	c.log.Debug("news fetched", logger.String("symbol", symbol), logger.Int("items", len(items)), logger.Int("texts", len(texts)))
	return texts, nil
}

// texts keeps items newer than from, drops duplicate headlines and joins
// headline and summary.
func (c *NewsClient) texts(items []companyNews, from time.Time) []string {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Datetime > items[j].Datetime })
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, min(len(items), c.cfg.MaxItems))
	for _, it := range items {
		if len(out) == c.cfg.MaxItems {
			break
		}
		if it.Datetime > 0 && time.Unix(it.Datetime, 0).Before(from) {
			continue
		}
		headline := strings.TrimSpace(it.Headline)
		if headline == "" {
			continue
		}
		dedup := strings.ToLower(headline)
		if _, ok := seen[dedup]; ok {
			continue
		}
		seen[dedup] = struct{}{}

		text := headline
		if s := strings.TrimSpace(it.Summary); s != "" && !strings.EqualFold(s, headline) {
			text += ". " + s
		}
		out = append(out, text)
	}
	return out
}

var _ drepo.NewsSource = (*NewsClient)(nil)
