// Command lcore-core is the rollup guest entrypoint (spec §9): it wires
// storage, the registry/attestation/access/discovery handler sets, the
// envelope layer, and the router exactly once at startup, then drives
// the host's /finish poll loop for the process lifetime.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmhodges/clock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lcore-labs/lcore-core/access"
	"github.com/lcore-labs/lcore-core/attestation"
	"github.com/lcore-labs/lcore-core/config"
	"github.com/lcore-labs/lcore-core/db"
	"github.com/lcore-labs/lcore-core/discovery"
	"github.com/lcore-labs/lcore-core/envelope"
	"github.com/lcore-labs/lcore-core/host"
	lcorelog "github.com/lcore-labs/lcore-core/log"
	"github.com/lcore-labs/lcore-core/metrics"
	"github.com/lcore-labs/lcore-core/registry"
	"github.com/lcore-labs/lcore-core/router"
	"github.com/lcore-labs/lcore-core/sa"
)

func main() {
	clk := clock.Default()
	logger := lcorelog.New(lcorelog.Config{Level: zapcore.InfoLevel}, clk)
	defer logger.Sync()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	dbPath := os.Getenv("LCORE_DB_PATH")
	if dbPath == "" {
		dbPath = "lcore.db"
	}
	engine, err := db.Open(dbPath, sa.InitTables)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	if err := sa.Bootstrap(engine.Map); err != nil {
		logger.Fatal("bootstrap schema", zap.Error(err))
	}

	storage := sa.New(engine.Map)
	reg := registry.New(storage)
	att := attestation.New(storage)
	acc := access.New(storage)
	disc := discovery.New(storage)
	met := metrics.New()

	inputKey, err := envelope.ParseKey(cfg.InputPrivateKeyB64)
	if err != nil {
		logger.Fatal("parse LCORE_INPUT_PRIVATE_KEY", zap.Error(err))
	}
	outputKey, err := envelope.ParseKey(cfg.AdminPublicKeyB64)
	if err != nil {
		logger.Fatal("parse LCORE_ADMIN_PUBLIC_KEY", zap.Error(err))
	}
	env := envelope.New(envelope.Keys{InputPrivateKey: inputKey, OutputPublicKey: outputKey},
		envelope.OutputMode(cfg.OutputMode), nil)

	if len(cfg.AuthorizedSenders) == 0 {
		logger.Warn("AUTHORIZED_SENDERS is unset: running in development mode, all senders accepted")
	}

	rt := router.New(router.Deps{
		Registry:          reg,
		Attestation:       att,
		Access:            acc,
		Discovery:         disc,
		Envelope:          env,
		Metrics:           met,
		Log:               logger,
		AuthorizedSenders: cfg.AuthorizedSenders,
		MaxPayloadSize:    cfg.MaxPayloadSize,
		MaxStringLength:   cfg.MaxStringLength,
	})

	if cfg.RollupHTTPServerURL == "" {
		logger.Fatal("ROLLUP_HTTP_SERVER_URL is required")
	}
	client := host.New(cfg.RollupHTTPServerURL)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runLoop(ctx, logger, client, rt)
}

// runLoop implements the host round-trip of spec §6: Finish reports the
// previous verdict and blocks for the next request; advance requests are
// routed and their verdict reported back as accept/reject plus an
// optional notice; inspect requests are routed and reported as a report.
func runLoop(ctx context.Context, logger *zap.Logger, client *host.Client, rt *router.Router) {
	status := "accept"
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		default:
		}

		req, err := client.Finish(ctx, status)
		if err != nil {
			logger.Error("finish", zap.Error(err))
			status = "accept"
			continue
		}
		if req == nil {
			status = "accept"
			continue
		}

		payload, err := host.DecodePayload(req)
		if err != nil {
			logger.Warn("decode payload", zap.Error(err))
			status = "reject"
			continue
		}

		switch req.RequestType {
		case host.RequestAdvance:
			status = handleAdvance(ctx, logger, client, rt, req, payload)
		case host.RequestInspect:
			status = handleInspect(ctx, logger, client, rt, payload)
		default:
			logger.Warn("unknown request type", zap.String("type", string(req.RequestType)))
			status = "reject"
		}
	}
}

func handleAdvance(ctx context.Context, logger *zap.Logger, client *host.Client, rt *router.Router, req *host.Request, payload []byte) string {
	sender := ""
	inputIndex := int64(0)
	if req.Data.Metadata != nil {
		sender = req.Data.Metadata.MsgSender
		inputIndex = req.Data.Metadata.InputIndex
	}

	result := rt.HandleAdvance(sender, inputIndex, payload)
	if !result.Accept {
		logger.Info("advance rejected", zap.String("reason", result.RejectReason))
		return "reject"
	}
	if result.Notice != nil {
		noticeBytes, err := marshalNotice(result.Notice)
		if err != nil {
			logger.Error("marshal notice", zap.Error(err))
			return "reject"
		}
		if err := client.Notice(ctx, noticeBytes); err != nil {
			logger.Error("emit notice", zap.Error(err))
		}
	}
	return "accept"
}

func handleInspect(ctx context.Context, logger *zap.Logger, client *host.Client, rt *router.Router, payload []byte) string {
	result := rt.HandleInspect(payload, 0)
	reportBytes, err := marshalNotice(result.Body)
	if err != nil {
		logger.Error("marshal report", zap.Error(err))
		return "accept"
	}
	if err := client.Report(ctx, reportBytes); err != nil {
		logger.Error("emit report", zap.Error(err))
	}
	return "accept"
}

func marshalNotice(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
