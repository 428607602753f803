// Package router implements the guest request router (spec §4.8): it
// enforces the sender allowlist and payload caps, detects and decrypts
// encrypted envelopes, dispatches advance actions and inspect queries by
// a handler table, and formats every response as a notice or report.
package router

import (
	"encoding/json"
	"strconv"
	"strings"

	validator "github.com/letsencrypt/validator/v10"
	"go.uber.org/zap"

	"github.com/lcore-labs/lcore-core/access"
	"github.com/lcore-labs/lcore-core/attestation"
	lerrors "github.com/lcore-labs/lcore-core/errors"
	"github.com/lcore-labs/lcore-core/discovery"
	"github.com/lcore-labs/lcore-core/envelope"
	"github.com/lcore-labs/lcore-core/metrics"
	"github.com/lcore-labs/lcore-core/registry"
)

const (
	defaultMaxPayloadSize  = 100 * 1024
	defaultMaxStringLength = 10 * 1024
)

// AdvanceResult is the outcome of HandleAdvance: a verdict plus the
// optional notice payload to emit when the verdict is accept.
type AdvanceResult struct {
	Accept   bool
	Notice   interface{}
	RejectReason string
}

// Router holds the handler tables and the collaborators every handler is
// built from (spec §9's explicit Core wiring, realized one layer down).
type Router struct {
	registry    *registry.Registry
	attestation *attestation.Attestation
	access      *access.Access
	discovery   *discovery.Discovery
	envelope    *envelope.Envelope
	metrics     *metrics.Registry
	log         *zap.Logger

	authorizedSenders map[string]bool
	maxPayloadSize    int
	maxStringLength   int

	validate *validator.Validate

	advanceHandlers map[string]advanceHandler
	inspectHandlers map[string]inspectHandler
}

type advanceHandler func(r *Router, sender string, inputIndex int64, raw []byte) (interface{}, error)
type inspectHandler func(r *Router, params map[string]interface{}, currentInput int64) (interface{}, bool, error)

// Deps bundles the collaborators New needs; passing a struct keeps the
// constructor stable as the collaborator set grows.
type Deps struct {
	Registry          *registry.Registry
	Attestation       *attestation.Attestation
	Access            *access.Access
	Discovery         *discovery.Discovery
	Envelope          *envelope.Envelope
	Metrics           *metrics.Registry
	Log               *zap.Logger
	AuthorizedSenders []string
	MaxPayloadSize    int
	MaxStringLength   int
}

func New(d Deps) *Router {
	allow := make(map[string]bool, len(d.AuthorizedSenders))
	for _, s := range d.AuthorizedSenders {
		allow[strings.ToLower(s)] = true
	}
	maxPayload := d.MaxPayloadSize
	if maxPayload <= 0 {
		maxPayload = defaultMaxPayloadSize
	}
	maxString := d.MaxStringLength
	if maxString <= 0 {
		maxString = defaultMaxStringLength
	}
	r := &Router{
		registry:          d.Registry,
		attestation:       d.Attestation,
		access:            d.Access,
		discovery:         d.Discovery,
		envelope:          d.Envelope,
		metrics:           d.Metrics,
		log:               d.Log,
		authorizedSenders: allow,
		maxPayloadSize:    maxPayload,
		maxStringLength:   maxString,
		validate:          validator.New(),
	}
	r.advanceHandlers = defaultAdvanceHandlers()
	r.inspectHandlers = defaultInspectHandlers()
	return r
}

// checkSender enforces the allowlist (§4.8.1): an empty configured list
// allows everyone; cmd/lcore-core logs that development mode once at
// startup, not on every request.
func (r *Router) checkSender(sender string) error {
	if len(r.authorizedSenders) == 0 {
		return nil
	}
	if !r.authorizedSenders[strings.ToLower(sender)] {
		return lerrors.UnauthorizedError("sender %q is not authorized", sender)
	}
	return nil
}

// checkCaps enforces the payload size and string-length caps (§4.8.2),
// recursively for every string value nested in the decoded JSON.
func (r *Router) checkCaps(raw []byte) error {
	if len(raw) > r.maxPayloadSize {
		return lerrors.BadRequestError("payload exceeds MAX_PAYLOAD_SIZE")
	}
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return lerrors.BadRequestError("invalid JSON: %s", err)
	}
	return r.checkStringLengths(v)
}

func (r *Router) checkStringLengths(v interface{}) error {
	switch t := v.(type) {
	case string:
		if len(t) > r.maxStringLength {
			return lerrors.BadRequestError("string field exceeds MAX_STRING_LENGTH")
		}
	case []interface{}:
		for _, e := range t {
			if err := r.checkStringLengths(e); err != nil {
				return err
			}
		}
	case map[string]interface{}:
		for _, e := range t {
			if err := r.checkStringLengths(e); err != nil {
				return err
			}
		}
	}
	return nil
}

// HandleAdvance implements handle_advance (§4.8): parse, enforce caps
// and sender allowlist, detect/decrypt the envelope, dispatch by action,
// and return the accept/reject verdict plus any notice to emit.
func (r *Router) HandleAdvance(sender string, inputIndex int64, raw []byte) AdvanceResult {
	if err := r.checkSender(sender); err != nil {
		return r.reject(err)
	}
	if err := r.checkCaps(raw); err != nil {
		return r.reject(err)
	}
	plaintext, err := r.envelope.DecryptInbound(raw)
	if err != nil {
		return r.reject(err)
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(plaintext, &req); err != nil {
		return r.reject(lerrors.BadRequestError("invalid JSON: %s", err))
	}
	if req.Action == "" {
		return r.reject(lerrors.BadRequestError("missing required field: action"))
	}

	handler, ok := r.advanceHandlers[req.Action]
	if !ok {
		return r.reject(lerrors.BadRequestError("UnknownAction: %q", req.Action))
	}

	response, err := func() (resp interface{}, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = lerrors.InternalError("handler panic: %v", p)
			}
		}()
		return handler(r, strings.ToLower(sender), inputIndex, plaintext)
	}()
	if err != nil {
		return r.reject(err)
	}

	r.metrics.RequestsTotal.WithLabelValues(req.Action, "accept").Inc()
	return AdvanceResult{Accept: true, Notice: response}
}

func (r *Router) reject(err error) AdvanceResult {
	kind := "Internal"
	if ce, ok := err.(*lerrors.CoreError); ok {
		kind = ce.Type.String()
	}
	r.metrics.RejectsTotal.WithLabelValues(kind).Inc()
	return AdvanceResult{Accept: false, RejectReason: err.Error()}
}

// InspectResult is the report body HandleInspect produces; inspects
// never reject (§7) — failures are reported as {error, details?}.
type InspectResult struct {
	Body interface{}
}

// HandleInspect implements handle_inspect (§4.8): parse either
// {type, params} JSON or the path form type/k1/v1/..., dispatch by
// query type, and format the result (or error) as a report.
func (r *Router) HandleInspect(raw []byte, currentInput int64) InspectResult {
	queryType, params, err := parseInspectPayload(raw)
	if err != nil {
		return InspectResult{Body: errorBody(err)}
	}
	handler, ok := r.inspectHandlers[queryType]
	if !ok {
		return InspectResult{Body: errorBody(lerrors.BadRequestError("UnknownAction: %q", queryType))}
	}

	data, sensitive, err := func() (data interface{}, sensitive bool, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = lerrors.InternalError("handler panic: %v", p)
			}
		}()
		return handler(r, params, currentInput)
	}()
	if err != nil {
		return InspectResult{Body: errorBody(err)}
	}

	wrapped, err := r.envelope.CreateResponse(data, sensitive)
	if err != nil {
		return InspectResult{Body: errorBody(err)}
	}
	return InspectResult{Body: wrapped}
}

func errorBody(err error) map[string]interface{} {
	return map[string]interface{}{"error": err.Error()}
}

// parseInspectPayload accepts either {type, params} JSON or the path
// form type/k1/v1/k2/v2 (§4.8.6); a lone trailing segment becomes
// params.id.
func parseInspectPayload(raw []byte) (string, map[string]interface{}, error) {
	var req struct {
		Type   string                 `json:"type"`
		Params map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal(raw, &req); err == nil && req.Type != "" {
		if req.Params == nil {
			req.Params = map[string]interface{}{}
		}
		return req.Type, req.Params, nil
	}

	path := strings.Trim(strings.Trim(string(raw), "\""), "/")
	segments := strings.Split(path, "/")
	if len(segments) == 0 || segments[0] == "" {
		return "", nil, lerrors.BadRequestError("empty inspect payload")
	}
	queryType := segments[0]
	rest := segments[1:]
	params := map[string]interface{}{}
	i := 0
	for ; i+1 < len(rest); i += 2 {
		params[rest[i]] = coerceParam(rest[i+1])
	}
	if i < len(rest) {
		params["id"] = rest[i]
	}
	return queryType, params, nil
}

// coerceParam tries int then float then falls back to string, since the
// path form carries no type information.
func coerceParam(s string) interface{} {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func paramString(params map[string]interface{}, key string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func paramInt(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}

func paramInt64(params map[string]interface{}, key string) int64 {
	switch v := params[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func paramBool(params map[string]interface{}, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	}
	return false
}
