// Package config loads the environment-driven configuration table of
// spec §6, the way boulder's cmd package loads a JSON config file: a
// single FromEnv() call at startup, with defaults applied for anything
// unset and hard failures reserved for genuinely malformed values.
package config

import (
	"os"
	"strconv"
	"strings"

	lerrors "github.com/lcore-labs/lcore-core/errors"
)

const (
	defaultMaxPayloadSize  = 100 * 1024
	defaultMaxStringLength = 10 * 1024
	defaultOutputMode      = "encrypted"
)

// Config is the full environment-driven configuration surface: the
// router/crypto fields the core reads directly (§6), plus the
// non-core tuning fields carried alongside for the handlers that ship
// next to the core but are not part of its specified behavior.
type Config struct {
	RollupHTTPServerURL string
	AdminPublicKeyB64   string
	InputPrivateKeyB64  string
	OutputMode          string
	AuthorizedSenders   []string
	MaxPayloadSize      int
	MaxStringLength     int

	// Non-core tuning fields (SPEC_FULL §6.1): read and carried through
	// so callers of the default handler set have them available, but
	// never consulted by the router/crypto/storage logic this module
	// implements.
	RequireApproval            bool
	DefaultThreshold           int
	MaxRecordsPerSync          int
	ComputationLookbackMonths  int
	ProofSigningKey            string
	ProofExpirationMS          int64
}

// FromEnv reads the full configuration from the process environment,
// applying the documented defaults (§6) for anything unset.
func FromEnv() (*Config, error) {
	cfg := &Config{
		RollupHTTPServerURL: os.Getenv("ROLLUP_HTTP_SERVER_URL"),
		AdminPublicKeyB64:   os.Getenv("LCORE_ADMIN_PUBLIC_KEY"),
		InputPrivateKeyB64:  os.Getenv("LCORE_INPUT_PRIVATE_KEY"),
		OutputMode:          envOr("LCORE_OUTPUT_MODE", defaultOutputMode),
		MaxPayloadSize:      defaultMaxPayloadSize,
		MaxStringLength:     defaultMaxStringLength,
		ProofSigningKey:     os.Getenv("PROOF_SIGNING_KEY"),
	}

	if senders := os.Getenv("AUTHORIZED_SENDERS"); senders != "" {
		for _, s := range strings.Split(senders, ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				cfg.AuthorizedSenders = append(cfg.AuthorizedSenders, s)
			}
		}
	}

	var err error
	if cfg.MaxPayloadSize, err = intEnvOr("MAX_PAYLOAD_SIZE", defaultMaxPayloadSize); err != nil {
		return nil, err
	}
	if cfg.MaxStringLength, err = intEnvOr("MAX_STRING_LENGTH", defaultMaxStringLength); err != nil {
		return nil, err
	}
	if cfg.RequireApproval, err = boolEnvOr("REQUIRE_APPROVAL", false); err != nil {
		return nil, err
	}
	if cfg.DefaultThreshold, err = intEnvOr("DEFAULT_THRESHOLD", 0); err != nil {
		return nil, err
	}
	if cfg.MaxRecordsPerSync, err = intEnvOr("MAX_RECORDS_PER_SYNC", 0); err != nil {
		return nil, err
	}
	if cfg.ComputationLookbackMonths, err = intEnvOr("COMPUTATION_LOOKBACK_MONTHS", 0); err != nil {
		return nil, err
	}
	if ms, err := int64EnvOr("PROOF_EXPIRATION_MS", 0); err != nil {
		return nil, err
	} else {
		cfg.ProofExpirationMS = ms
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnvOr(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, lerrors.BadRequestError("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func int64EnvOr(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, lerrors.BadRequestError("%s: invalid integer %q", key, v)
	}
	return n, nil
}

func boolEnvOr(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, lerrors.BadRequestError("%s: invalid boolean %q", key, v)
	}
	return b, nil
}
