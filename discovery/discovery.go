// Package discovery implements the read-only discovery inspects of spec
// §4.7: bucket/domain queries, aggregate counts, freshness statistics,
// and schema discovery, all formatted from sa's raw query helpers.
package discovery

import (
	"sort"
	"strings"

	"github.com/lcore-labs/lcore-core/attestation"
	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/sa"
)

const defaultLimit = 50

type Discovery struct {
	storage     *sa.Storage
	attestation *attestation.Attestation
}

func New(storage *sa.Storage) *Discovery {
	return &Discovery{storage: storage, attestation: attestation.New(storage)}
}

func resolveLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}

// projectFreshness recomputes each attestation's freshness against
// currentInput (§4.4), the single evaluation point every discovery read
// path shares, then applies the minFreshness filter, descending sort, and
// limit/offset that the stored freshness_score column would otherwise
// have handled at the SQL layer.
func (d *Discovery) projectFreshness(atts []core.Attestation, currentInput int64, minFreshness, limit, offset int) ([]core.Attestation, error) {
	projected := make([]core.Attestation, 0, len(atts))
	for _, a := range atts {
		score, err := d.attestation.CurrentFreshness(a, currentInput)
		if err != nil {
			return nil, err
		}
		a.FreshnessScore = score
		if minFreshness > 0 && a.FreshnessScore < minFreshness {
			continue
		}
		projected = append(projected, a)
	}
	sort.SliceStable(projected, func(i, j int) bool {
		return projected[i].FreshnessScore > projected[j].FreshnessScore
	})

	if offset > 0 {
		if offset >= len(projected) {
			return []core.Attestation{}, nil
		}
		projected = projected[offset:]
	}
	if lim := resolveLimit(limit); lim < len(projected) {
		projected = projected[:lim]
	}
	return projected, nil
}

// QueryByBucket implements query_by_bucket (§4.7).
func (d *Discovery) QueryByBucket(domain, provider, bucketKey, bucketValue string, minFreshness, limit, offset int, currentInput int64) ([]core.Attestation, error) {
	atts, err := d.storage.QueryByBucket(strings.ToLower(domain), strings.ToLower(provider), bucketKey, bucketValue, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return d.projectFreshness(atts, currentInput, minFreshness, limit, offset)
}

// QueryByDomain implements query_by_domain (§4.7).
func (d *Discovery) QueryByDomain(domain, provider, flowType string, minFreshness, limit, offset int, currentInput int64) ([]core.Attestation, error) {
	atts, err := d.storage.QueryByDomain(strings.ToLower(domain), strings.ToLower(provider), strings.ToLower(flowType), 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return d.projectFreshness(atts, currentInput, minFreshness, limit, offset)
}

// BucketCountResult is one row of count_by_bucket's response.
type BucketCountResult struct {
	BucketValue string `json:"bucketValue"`
	Count       int    `json:"count"`
}

// CountByBucket implements count_by_bucket (§4.7): grouped by
// bucket_value, counting distinct owner addresses.
func (d *Discovery) CountByBucket(domain, provider, bucketKey string, minFreshness int) ([]BucketCountResult, error) {
	rows, err := d.storage.CountByBucket(strings.ToLower(domain), strings.ToLower(provider), bucketKey, minFreshness)
	if err != nil {
		return nil, err
	}
	out := make([]BucketCountResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, BucketCountResult{BucketValue: r.BucketValue, Count: r.OwnerCount})
	}
	return out, nil
}

// CountByDomain implements count_by_domain (§4.7).
func (d *Discovery) CountByDomain(domain string) (int, error) {
	return d.storage.CountByDomain(strings.ToLower(domain))
}

// ProviderCountResult is one row of count_by_provider's response.
type ProviderCountResult struct {
	Provider string `json:"provider"`
	Count    int    `json:"count"`
}

// CountByProvider implements count_by_provider(domain) (§4.7).
func (d *Discovery) CountByProvider(domain string) ([]ProviderCountResult, error) {
	rows, err := d.storage.CountByProvider(strings.ToLower(domain))
	if err != nil {
		return nil, err
	}
	out := make([]ProviderCountResult, 0, len(rows))
	for _, r := range rows {
		out = append(out, ProviderCountResult{Provider: r.Provider, Count: r.Count})
	}
	return out, nil
}

// FreshnessStatsResult is the response of freshness_stats (§4.7): the
// raw aggregate plus a tier-distribution heuristic bucketing attestations
// into fresh/stale/decayed bands.
type FreshnessStatsResult struct {
	Count int     `json:"count"`
	Avg   float64 `json:"avg"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Tiers TierDistribution `json:"tiers"`
}

// TierDistribution counts active attestations into three freshness
// bands: fresh (>=75), stale (25-74), decayed (<25). This grouping is
// the "tier-distribution heuristic" the spec leaves unspecified in
// detail (§4.7); it is informational and never gates access.
type TierDistribution struct {
	Fresh   int `json:"fresh"`
	Stale   int `json:"stale"`
	Decayed int `json:"decayed"`
}

// FreshnessStats implements freshness_stats(domain, provider?) (§4.7).
func (d *Discovery) FreshnessStats(domain, provider string) (FreshnessStatsResult, error) {
	stats, err := d.storage.FreshnessStats(strings.ToLower(domain), strings.ToLower(provider))
	if err != nil {
		return FreshnessStatsResult{}, err
	}
	atts, err := d.storage.QueryByDomain(strings.ToLower(domain), strings.ToLower(provider), "", 0, 0, 0)
	if err != nil {
		return FreshnessStatsResult{}, err
	}
	var tiers TierDistribution
	for _, a := range atts {
		switch {
		case a.FreshnessScore >= 75:
			tiers.Fresh++
		case a.FreshnessScore >= 25:
			tiers.Stale++
		default:
			tiers.Decayed++
		}
	}
	return FreshnessStatsResult{
		Count: stats.Count,
		Avg:   stats.Avg,
		Min:   stats.Min,
		Max:   stats.Max,
		Tiers: tiers,
	}, nil
}

// AvailableProviders implements available_providers(domain?, active_only?)
// (§4.7): the active schemas, narrowed to domain when one is given. Only
// active schemas are listed; there is no all-versions listing.
func (d *Discovery) AvailableProviders(domain string) ([]core.ProviderSchema, error) {
	all, err := d.storage.AvailableProviders()
	if err != nil {
		return nil, err
	}
	if domain == "" {
		return all, nil
	}
	domain = strings.ToLower(domain)
	out := make([]core.ProviderSchema, 0, len(all))
	for _, s := range all {
		if s.Domain == domain {
			out = append(out, s)
		}
	}
	return out, nil
}

// BucketDefinition implements bucket_definition(provider, flow_type)
// (§4.7).
func (d *Discovery) BucketDefinition(provider, flowType string) (core.ProviderSchema, error) {
	return d.storage.GetActiveSchema(strings.ToLower(provider), strings.ToLower(flowType))
}

// BucketCriterion is one entry of queryAttestationsByMultipleBuckets'
// criteria array: a bucket key with an OR-set of acceptable values.
type BucketCriterion = sa.BucketCriterion

// QueryByMultipleBuckets implements queryAttestationsByMultipleBuckets
// (§4.7): the AND-of-bucket form, joining one bucket_entries row per
// criterion with bucket_key = ki AND bucket_value IN (vi...).
func (d *Discovery) QueryByMultipleBuckets(domain string, criteria []BucketCriterion, minFreshness, limit, offset int, currentInput int64) ([]core.Attestation, error) {
	if len(criteria) == 0 {
		return nil, lerrors.BadRequestError("criteria must be non-empty")
	}
	atts, err := d.storage.QueryByMultipleBuckets(strings.ToLower(domain), criteria, 0, 0, 0)
	if err != nil {
		return nil, err
	}
	return d.projectFreshness(atts, currentInput, minFreshness, limit, offset)
}
