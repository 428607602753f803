package sa

import (
	"strconv"
	"strings"

	"github.com/lcore-labs/lcore-core/core"
	lerrors "github.com/lcore-labs/lcore-core/errors"
)

func attestationModelsToCore(rows []attestationModel) []core.Attestation {
	out := make([]core.Attestation, 0, len(rows))
	for _, m := range rows {
		out = append(out, modelToAttestation(m))
	}
	return out
}

// QueryByBucket implements query_by_bucket (§4.7): an inner join of
// attestations and bucket_entries on the requested (bucket_key,
// bucket_value), restricted to active attestations in domain (and,
// optionally, provider), ordered by freshness descending.
func (s *Storage) QueryByBucket(domain, provider, bucketKey, bucketValue string, minFreshness, limit, offset int) ([]core.Attestation, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT a.* FROM attestations a
		INNER JOIN bucket_entries b ON b.attestation_id = a.id
		WHERE a.status = 'active' AND a.domain = ? AND b.bucket_key = ? AND b.bucket_value = ?`)
	args := []interface{}{domain, bucketKey, bucketValue}
	if provider != "" {
		query.WriteString(" AND a.provider = ?")
		args = append(args, provider)
	}
	if minFreshness > 0 {
		query.WriteString(" AND a.freshness_score >= ?")
		args = append(args, minFreshness)
	}
	query.WriteString(" ORDER BY a.freshness_score DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			query.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}
	var rows []attestationModel
	if _, err := s.dbMap.Select(&rows, query.String(), args...); err != nil {
		return nil, lerrors.InternalError("sa: query_by_bucket: %s", err)
	}
	return attestationModelsToCore(rows), nil
}

// QueryByDomain implements query_by_domain (§4.7): all active
// attestations in domain, optionally narrowed by provider and flow_type,
// ordered by freshness descending.
func (s *Storage) QueryByDomain(domain, provider, flowType string, minFreshness, limit, offset int) ([]core.Attestation, error) {
	query := strings.Builder{}
	query.WriteString("SELECT * FROM attestations WHERE status = 'active' AND domain = ?")
	args := []interface{}{domain}
	if provider != "" {
		query.WriteString(" AND provider = ?")
		args = append(args, provider)
	}
	if flowType != "" {
		query.WriteString(" AND flow_type = ?")
		args = append(args, flowType)
	}
	if minFreshness > 0 {
		query.WriteString(" AND freshness_score >= ?")
		args = append(args, minFreshness)
	}
	query.WriteString(" ORDER BY freshness_score DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			query.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}
	var rows []attestationModel
	if _, err := s.dbMap.Select(&rows, query.String(), args...); err != nil {
		return nil, lerrors.InternalError("sa: query_by_domain: %s", err)
	}
	return attestationModelsToCore(rows), nil
}

// BucketCount is one row of count_by_bucket's group-by-bucket_value
// result.
type BucketCount struct {
	BucketValue  string `db:"bucket_value"`
	OwnerCount   int    `db:"owner_count"`
}

// CountByBucket implements count_by_bucket (§4.7): grouped by
// bucket_value, counting distinct owner addresses among active
// attestations carrying bucket_key.
func (s *Storage) CountByBucket(domain, provider, bucketKey string, minFreshness int) ([]BucketCount, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT b.bucket_value AS bucket_value, COUNT(DISTINCT a.owner_address) AS owner_count
		FROM attestations a
		INNER JOIN bucket_entries b ON b.attestation_id = a.id
		WHERE a.status = 'active' AND a.domain = ? AND b.bucket_key = ?`)
	args := []interface{}{domain, bucketKey}
	if provider != "" {
		query.WriteString(" AND a.provider = ?")
		args = append(args, provider)
	}
	if minFreshness > 0 {
		query.WriteString(" AND a.freshness_score >= ?")
		args = append(args, minFreshness)
	}
	query.WriteString(" GROUP BY b.bucket_value")
	var rows []BucketCount
	if _, err := s.dbMap.Select(&rows, query.String(), args...); err != nil {
		return nil, lerrors.InternalError("sa: count_by_bucket: %s", err)
	}
	return rows, nil
}

// CountByDomain implements count_by_domain (§4.7): active attestations
// in domain.
func (s *Storage) CountByDomain(domain string) (int, error) {
	var count int
	err := s.dbMap.SelectOne(&count, "SELECT COUNT(*) FROM attestations WHERE status = 'active' AND domain = ?", domain)
	if err != nil {
		return 0, lerrors.InternalError("sa: count_by_domain: %s", err)
	}
	return count, nil
}

// CountByProvider implements count_by_provider(domain) (§4.7): active
// attestations in domain, grouped by provider.
type ProviderCount struct {
	Provider string `db:"provider"`
	Count    int    `db:"count"`
}

func (s *Storage) CountByProvider(domain string) ([]ProviderCount, error) {
	var rows []ProviderCount
	_, err := s.dbMap.Select(&rows,
		`SELECT provider AS provider, COUNT(*) AS count FROM attestations
			WHERE status = 'active' AND domain = ? GROUP BY provider`, domain)
	if err != nil {
		return nil, lerrors.InternalError("sa: count_by_provider: %s", err)
	}
	return rows, nil
}

// FreshnessStats is the aggregate returned by freshness_stats (§4.7).
type FreshnessStats struct {
	Count int     `db:"count"`
	Avg   float64 `db:"avg"`
	Min   int     `db:"min"`
	Max   int     `db:"max"`
}

// FreshnessStats implements freshness_stats(domain, provider?): count,
// avg, min, max freshness_score over active attestations. The
// tier-distribution heuristic is computed by the discovery package from
// a separate QueryByDomain row set, not here.
func (s *Storage) FreshnessStats(domain, provider string) (FreshnessStats, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT COUNT(*) AS count,
		COALESCE(AVG(freshness_score), 0) AS avg,
		COALESCE(MIN(freshness_score), 0) AS min,
		COALESCE(MAX(freshness_score), 0) AS max
		FROM attestations WHERE status = 'active' AND domain = ?`)
	args := []interface{}{domain}
	if provider != "" {
		query.WriteString(" AND provider = ?")
		args = append(args, provider)
	}
	var stats FreshnessStats
	if err := s.dbMap.SelectOne(&stats, query.String(), args...); err != nil {
		return FreshnessStats{}, lerrors.InternalError("sa: freshness_stats: %s", err)
	}
	return stats, nil
}

// ActiveAttestations lists every active attestation, for the host-driven
// bulk freshness recalculation pass.
func (s *Storage) ActiveAttestations() ([]core.Attestation, error) {
	var rows []attestationModel
	_, err := s.dbMap.Select(&rows, "SELECT * FROM attestations WHERE status = 'active'")
	if err != nil {
		return nil, lerrors.InternalError("sa: select active attestations: %s", err)
	}
	return attestationModelsToCore(rows), nil
}

// BucketCriterion is one AND-ed term of a multi-bucket query: bucket_key
// must equal Key and bucket_value must be one of Values.
type BucketCriterion struct {
	Key    string
	Values []string
}

// QueryByMultipleBuckets implements queryAttestationsByMultipleBuckets
// (§4.7): joins one bucket_entries row per criterion, so an attestation
// only matches if it carries every criterion's key with one of its
// listed values.
func (s *Storage) QueryByMultipleBuckets(domain string, criteria []BucketCriterion, minFreshness, limit, offset int) ([]core.Attestation, error) {
	query := strings.Builder{}
	query.WriteString("SELECT a.* FROM attestations a")
	args := []interface{}{}
	for i, c := range criteria {
		alias := bucketAlias(i)
		query.WriteString(" INNER JOIN bucket_entries " + alias + " ON " + alias + ".attestation_id = a.id AND " + alias + ".bucket_key = ?")
		args = append(args, c.Key)
	}
	query.WriteString(" WHERE a.status = 'active' AND a.domain = ?")
	args = append(args, domain)
	for i, c := range criteria {
		alias := bucketAlias(i)
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(c.Values)), ",")
		query.WriteString(" AND " + alias + ".bucket_value IN (" + placeholders + ")")
		for _, v := range c.Values {
			args = append(args, v)
		}
	}
	if minFreshness > 0 {
		query.WriteString(" AND a.freshness_score >= ?")
		args = append(args, minFreshness)
	}
	query.WriteString(" ORDER BY a.freshness_score DESC")
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, limit)
		if offset > 0 {
			query.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}
	var rows []attestationModel
	if _, err := s.dbMap.Select(&rows, query.String(), args...); err != nil {
		return nil, lerrors.InternalError("sa: queryAttestationsByMultipleBuckets: %s", err)
	}
	return attestationModelsToCore(rows), nil
}

func bucketAlias(i int) string {
	return "b" + strconv.Itoa(i)
}

// DataChunksForAttestation fetches every data chunk belonging to an
// attestation, for access.FetchData's gated-read path.
func (s *Storage) DataChunksForAttestation(attestationID string) ([]core.DataChunk, error) {
	var rows []dataChunkModel
	_, err := s.dbMap.Select(&rows, "SELECT * FROM data_chunks WHERE attestation_id = ?", attestationID)
	if err != nil {
		return nil, lerrors.InternalError("sa: select data chunks: %s", err)
	}
	out := make([]core.DataChunk, 0, len(rows))
	for _, m := range rows {
		out = append(out, core.DataChunk(m))
	}
	return out, nil
}
