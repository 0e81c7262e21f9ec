// Package cache keeps finished analysis reports in memory so repeat
// requests for the same video skip the whole pipeline.
package cache

import (
	gocache "github.com/patrickmn/go-cache"

	"github.com/veritaslab/veritas/internal/model"
)

const keyPrefix = "report:"

// ReportCache is a TTL cache keyed by video ID. A disabled cache is valid
// and simply never hits.
type ReportCache struct {
	store   *gocache.Cache
	enabled bool
}

// NewReportCache creates a cache from config
func NewReportCache(cfg model.CacheConfig) *ReportCache {
	if !cfg.Enabled {
		return &ReportCache{}
	}
	return &ReportCache{
		store:   gocache.New(cfg.TTL, cfg.TTL),
		enabled: true,
	}
}

// Get returns the cached report for videoID, if any
func (r *ReportCache) Get(videoID string) (*model.AnalysisReport, bool) {
	if r == nil || !r.enabled || videoID == "" {
		return nil, false
	}
	v, found := r.store.Get(keyPrefix + videoID)
	if !found {
		return nil, false
	}
	report, ok := v.(*model.AnalysisReport)
	return report, ok
}

// Set stores a finished report under videoID
func (r *ReportCache) Set(videoID string, report *model.AnalysisReport) {
	if r == nil || !r.enabled || videoID == "" || report == nil {
		return
	}
	r.store.SetDefault(keyPrefix+videoID, report)
}
