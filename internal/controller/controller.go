// Package controller provides programmatic access to the NLI compiler.
// It exposes the same functionality as the web API but for direct Go
// code integration, and adds input validation and response caching.
package controller

import (
	"context"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/infra-nli/internal/config"
	"github.com/infra-nli/internal/domain"
	"github.com/infra-nli/internal/engine"
	"github.com/infra-nli/internal/logging"
	"github.com/infra-nli/internal/synth"
)

// Controller provides programmatic access to the compiler APIs
type Controller struct {
	cfg    *config.Config
	logger domain.Logger
	engine *engine.Engine
	cache  *expirable.LRU[string, *domain.Response]

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a new Controller from the global configuration
func New() *Controller {
	cfg := config.Get()
	logger, err := logging.New(LoggerConfig(cfg, "controller"))
	if err != nil || logger == nil {
		// Fallback to default logger
		logger = logging.GetDefault()
	}
	return NewWithConfig(cfg, logger)
}

// NewWithConfig creates a Controller with explicit dependencies
func NewWithConfig(cfg *config.Config, logger *logging.Logger) *Controller {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = logging.Nop()
	}
	for _, w := range cfg.Warnings {
		logger.Warn("Config: %s", w)
	}

	c := &Controller{
		cfg:    cfg,
		logger: logger,
		engine: engine.New(SynthOptions(cfg)),
	}
	if cfg.Cache.Enabled && cfg.Cache.Size > 0 {
		c.cache = expirable.NewLRU[string, *domain.Response](cfg.Cache.Size, nil, cfg.Cache.TTL)
	}
	return c
}

// LoggerConfig maps the logging section of cfg onto a logger config
func LoggerConfig(cfg *config.Config, component string) logging.Config {
	return logging.Config{
		Level:       logging.ParseLevel(cfg.Logging.Level),
		LogDir:      cfg.Logging.LogDir,
		EnableFile:  cfg.Logging.EnableFile,
		EnableJSON:  cfg.Logging.EnableJSON,
		EnableColor: cfg.Logging.EnableColor,
		Component:   component,
	}
}

// SynthOptions maps the engine section of cfg onto rendering options
func SynthOptions(cfg *config.Config) synth.Options {
	return synth.Options{
		Region:            cfg.Engine.Region,
		KubernetesVersion: cfg.Engine.KubernetesVersion,
		NodeInstanceType:  cfg.Engine.NodeInstanceType,
		Domain:            cfg.Engine.Domain,
	}
}

// ParseRequest represents a compile request
type ParseRequest struct {
	Command string                 `json:"command"`
	Context *domain.CommandContext `json:"context,omitempty"`
}

// CacheStatus represents cache statistics
type CacheStatus struct {
	Enabled    bool    `json:"enabled"`
	Items      int     `json:"items"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	TTLSeconds float64 `json:"ttlSeconds"`
}

// Parse compiles a command. The returned response may be shared with
// other callers through the cache and must be treated as read-only.
func (c *Controller) Parse(ctx context.Context, req ParseRequest) (*domain.Response, error) {
	startTime := time.Now()

	text := strings.TrimSpace(req.Command)
	if err := c.validate(text); err != nil {
		c.logger.Warn("Rejected command: %v", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := cacheKey(text, req.Context)
	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			c.hits.Add(1)
			c.logger.Debug("Cache hit: intent=%s", resp.Intent)
			return resp, nil
		}
		c.misses.Add(1)
	}

	resp := c.engine.Handle(domain.Command{Text: text, Context: req.Context})

	if c.cache != nil {
		c.cache.Add(key, resp)
	}

	c.logger.Info("Compiled command: intent=%s understood=%v monthly=$%d duration=%v",
		resp.Intent, resp.Understood, resp.EstimatedCost.Monthly, time.Since(startTime))
	return resp, nil
}

func (c *Controller) validate(text string) error {
	if text == "" {
		return domain.NewValidationError("command", "command is required")
	}
	if limit := c.cfg.Engine.MaxCommandLength; limit > 0 && utf8.RuneCountInString(text) > limit {
		return domain.NewValidationError("command", "command exceeds "+strconv.Itoa(limit)+" characters")
	}
	return nil
}

// cacheKey identifies a command together with every context field that
// can change its response.
func cacheKey(text string, cc *domain.CommandContext) string {
	var b strings.Builder
	b.WriteString(text)
	if cc != nil {
		b.WriteString("\x00")
		b.WriteString(cc.Provider)
		b.WriteString("\x00")
		b.WriteString(cc.Environment)
		if cc.Budget != nil {
			b.WriteString("\x00")
			b.WriteString(strconv.FormatFloat(*cc.Budget, 'f', -1, 64))
		}
	}
	return b.String()
}

// Examples returns the sample command catalog
func (c *Controller) Examples() engine.Catalog {
	return c.engine.Examples()
}

// CacheStats returns cache statistics
func (c *Controller) CacheStats() CacheStatus {
	status := CacheStatus{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
	if c.cache != nil {
		status.Enabled = true
		status.Items = c.cache.Len()
		status.TTLSeconds = c.cfg.Cache.TTL.Seconds()
	}
	return status
}

// ClearCache drops all cached responses
func (c *Controller) ClearCache() {
	if c.cache != nil {
		c.cache.Purge()
	}
	c.logger.Info("Response cache cleared")
}
