package router

import (
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/sa"
)

// defaultInspectHandlers is the query type -> handler table (§4.8.6):
// every read-only inspect of SPEC_FULL §4.6-4.9 parses its params map
// and dispatches to discovery/access/metrics. The bool return is the
// "sensitive" flag CreateResponse uses to decide whether to encrypt.
func defaultInspectHandlers() map[string]inspectHandler {
	return map[string]inspectHandler{
		"query_by_bucket":          handleQueryByBucket,
		"query_by_domain":          handleQueryByDomain,
		"query_by_multiple_buckets": handleQueryByMultipleBuckets,
		"count_by_bucket":          handleCountByBucket,
		"count_by_domain":          handleCountByDomain,
		"count_by_provider":        handleCountByProvider,
		"freshness_stats":          handleFreshnessStats,
		"available_providers":      handleAvailableProviders,
		"bucket_definition":        handleBucketDefinition,
		"check_access":             handleCheckAccess,
		"attestation_data":         handleAttestationData,
		"metrics_snapshot":         handleMetricsSnapshot,
	}
}

func handleQueryByBucket(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	bucketKey := paramString(params, "bucket_key")
	bucketValue := paramString(params, "bucket_value")
	if bucketKey == "" || bucketValue == "" {
		return nil, false, lerrors.BadRequestError("bucket_key and bucket_value are required")
	}
	atts, err := r.discovery.QueryByBucket(domain, paramString(params, "provider"), bucketKey, bucketValue,
		paramInt(params, "min_freshness"), paramInt(params, "limit"), paramInt(params, "offset"), resolveCurrentInput(params, currentInput))
	return atts, false, err
}

func handleQueryByDomain(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	atts, err := r.discovery.QueryByDomain(domain, paramString(params, "provider"), paramString(params, "flow_type"),
		paramInt(params, "min_freshness"), paramInt(params, "limit"), paramInt(params, "offset"), resolveCurrentInput(params, currentInput))
	return atts, false, err
}

func handleQueryByMultipleBuckets(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	rawCriteria, _ := params["criteria"].([]interface{})
	if len(rawCriteria) == 0 {
		return nil, false, lerrors.BadRequestError("criteria must be a non-empty array")
	}
	criteria := make([]sa.BucketCriterion, 0, len(rawCriteria))
	for _, c := range rawCriteria {
		cm, ok := c.(map[string]interface{})
		if !ok {
			return nil, false, lerrors.BadRequestError("each criterion must be an object")
		}
		key, _ := cm["bucket_key"].(string)
		rawValues, _ := cm["bucket_values"].([]interface{})
		values := make([]string, 0, len(rawValues))
		for _, v := range rawValues {
			if s, ok := v.(string); ok {
				values = append(values, s)
			}
		}
		if key == "" || len(values) == 0 {
			return nil, false, lerrors.BadRequestError("each criterion needs bucket_key and a non-empty bucket_values")
		}
		criteria = append(criteria, sa.BucketCriterion{Key: key, Values: values})
	}
	atts, err := r.discovery.QueryByMultipleBuckets(domain, criteria,
		paramInt(params, "min_freshness"), paramInt(params, "limit"), paramInt(params, "offset"), resolveCurrentInput(params, currentInput))
	return atts, false, err
}

func handleCountByBucket(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	bucketKey := paramString(params, "bucket_key")
	if domain == "" || bucketKey == "" {
		return nil, false, lerrors.BadRequestError("domain and bucket_key are required")
	}
	rows, err := r.discovery.CountByBucket(domain, paramString(params, "provider"), bucketKey, paramInt(params, "min_freshness"))
	return rows, false, err
}

func handleCountByDomain(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	count, err := r.discovery.CountByDomain(domain)
	return map[string]int{"count": count}, false, err
}

func handleCountByProvider(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	rows, err := r.discovery.CountByProvider(domain)
	return rows, false, err
}

func handleFreshnessStats(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	domain := paramString(params, "domain")
	if domain == "" {
		return nil, false, lerrors.BadRequestError("domain is required")
	}
	stats, err := r.discovery.FreshnessStats(domain, paramString(params, "provider"))
	return stats, false, err
}

func handleAvailableProviders(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	providers, err := r.discovery.AvailableProviders(paramString(params, "domain"))
	return providers, false, err
}

func handleBucketDefinition(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	provider := paramString(params, "provider")
	flowType := paramString(params, "flow_type")
	if provider == "" || flowType == "" {
		return nil, false, lerrors.BadRequestError("provider and flow_type are required")
	}
	schema, err := r.discovery.BucketDefinition(provider, flowType)
	return schema, false, err
}

func resolveCurrentInput(params map[string]interface{}, currentInput int64) int64 {
	if v := paramInt64(params, "current_input"); v != 0 {
		return v
	}
	return currentInput
}

func handleCheckAccess(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	attestationID := paramString(params, "attestation_id")
	grantee := paramString(params, "grantee")
	if attestationID == "" || grantee == "" {
		return nil, false, lerrors.BadRequestError("attestation_id and grantee are required")
	}
	var dataKey *string
	if s := paramString(params, "data_key"); s != "" {
		dataKey = &s
	}
	allowed, grant, err := r.access.Check(attestationID, grantee, resolveCurrentInput(params, currentInput), dataKey)
	if err != nil {
		return nil, false, err
	}
	result := map[string]interface{}{"allowed": allowed}
	if grant != nil {
		result["grant_id"] = grant.ID
		result["grant_type"] = grant.GrantType
	}
	return result, false, nil
}

func handleAttestationData(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	attestationID := paramString(params, "attestation_id")
	grantee := paramString(params, "grantee")
	if attestationID == "" || grantee == "" {
		return nil, false, lerrors.BadRequestError("attestation_id and grantee are required")
	}
	var dataKey *string
	if s := paramString(params, "data_key"); s != "" {
		dataKey = &s
	}
	results, err := r.access.FetchData(attestationID, grantee, resolveCurrentInput(params, currentInput), dataKey)
	return results, true, err
}

func handleMetricsSnapshot(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error) {
	snapshot, err := r.metrics.Snapshot()
	return map[string]string{"metrics": snapshot}, false, err
}
