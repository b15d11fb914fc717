// bastion is a bot-verification gate that sits in front of a Minecraft
// server. Unknown addresses are put through a protocol challenge
// (login emulation, keep-alive nonce, client metadata, gravity fall)
// before any of their traffic can reach the backend.
//
// Usage:
//
//	bastion -backend <addr> [options]
//
// Options:
//
//	-listen            Address to accept clients on (default: :25565)
//	-backend           Backend server address (required in proxy mode)
//	-mode              Handoff mode: proxy or reconnect (default: proxy)
//	-verified-ttl      How long verified verdicts are honored (default: 12h)
//	-blacklist-ttl     How long blacklist verdicts are honored (default: 10m)
//	-queue-cap         Max concurrent verifications (default: 1024)
//	-admit-rate        Max admissions per second, 0 = unlimited (default: 0)
//	-max-login-packets Packet ceiling per session (default: 256)
//	-min-view-dist     Minimum accepted client view distance (default: 2)
//	-brand-check       Validate the client brand (default: true)
//	-brand-pattern     Anchored pattern client brands must match
//	-brand-max-len     Max client brand length (default: 64)
//	-locale-pattern    Anchored pattern client locales must match
//	-timeout           Per-session verification deadline (default: 10s)
//	-store             Verified store backend: memory, redis or mongo
//	-redis-addr        Redis address for -store redis
//	-mongo-uri         MongoDB URI for -store mongo
//	-salt              Hex fingerprint salt; empty draws a random one
//	-motd              Server list description
//	-metrics-listen    Address to serve /metrics on, empty = off
//	-debug             Log at debug level
//
// Example:
//
//	bastion -backend 127.0.0.1:25566 -store redis -redis-addr 127.0.0.1:6379
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pion/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bastionmc/bastion/pkg/gate"
	"github.com/bastionmc/bastion/pkg/obs"
	"github.com/bastionmc/bastion/pkg/store"
	"github.com/bastionmc/bastion/pkg/verify"
)

func main() {
	var (
		listen       = flag.String("listen", gate.DefaultListenAddr, "address to accept clients on")
		backend      = flag.String("backend", "", "backend server address")
		mode         = flag.String("mode", gate.HandoffProxy.String(), "handoff mode: proxy or reconnect")
		verifiedTTL  = flag.Duration("verified-ttl", gate.DefaultVerifiedTTL, "how long verified verdicts are honored")
		blacklistTTL = flag.Duration("blacklist-ttl", gate.DefaultBlacklistTTL, "how long blacklist verdicts are honored")
		queueCap     = flag.Int("queue-cap", 0, "max concurrent verifications (0 = default)")
		admitRate    = flag.Int("admit-rate", 0, "max admissions per second (0 = unlimited)")
		maxPackets   = flag.Int("max-login-packets", verify.DefaultMaxLoginPackets, "packet ceiling per session")
		minViewDist  = flag.Int("min-view-dist", verify.DefaultMinViewDistance, "minimum accepted client view distance")
		brandCheck   = flag.Bool("brand-check", true, "validate the client brand")
		brandPattern = flag.String("brand-pattern", verify.DefaultBrandPattern, "anchored pattern client brands must match")
		brandMaxLen  = flag.Int("brand-max-len", verify.DefaultBrandMaxLength, "max client brand length")
		localePat    = flag.String("locale-pattern", verify.DefaultLocalePattern, "anchored pattern client locales must match")
		timeout      = flag.Duration("timeout", verify.DefaultDeadline, "per-session verification deadline")
		storeKind    = flag.String("store", string(store.BackendMemory), "verified store backend: memory, redis or mongo")
		redisAddr    = flag.String("redis-addr", "", "redis address for -store redis")
		mongoURI     = flag.String("mongo-uri", "", "mongodb uri for -store mongo")
		saltHex      = flag.String("salt", "", "hex fingerprint salt (empty = random per run)")
		motd         = flag.String("motd", "", "server list description")
		metricsAddr  = flag.String("metrics-listen", "", "address to serve /metrics on (empty = off)")
		debug        = flag.Bool("debug", false, "log at debug level")
	)
	flag.Parse()

	handoff, err := gate.ParseHandoffMode(*mode)
	if err != nil {
		log.Fatalf("bad -mode: %v", err)
	}
	var salt []byte
	if *saltHex != "" {
		if salt, err = hex.DecodeString(*saltHex); err != nil {
			log.Fatalf("bad -salt: %v", err)
		}
	}

	level := logging.LogLevelInfo
	if *debug {
		level = logging.LogLevelDebug
	}
	lf := obs.NewColorLoggerFactory(level)
	reg := prometheus.NewRegistry()

	cfg := gate.Config{
		ListenAddr: *listen,
		Backend:    *backend,
		Mode:       handoff,
		Status:     gate.Status{MOTD: *motd},
		Verify: verify.Config{
			MaxLoginPackets: *maxPackets,
			Deadline:        *timeout,
			MinViewDistance: *minViewDist,
			SkipBrandCheck:  !*brandCheck,
			BrandMaxLength:  *brandMaxLen,
			BrandPattern:    *brandPattern,
			LocalePattern:   *localePat,
		},
		VerifiedTTL:     *verifiedTTL,
		BlacklistTTL:    *blacklistTTL,
		VerifiedBackend: store.Backend(*storeKind),
		Redis:           store.RedisConfig{Addr: *redisAddr},
		Mongo:           store.MongoConfig{URI: *mongoURI},
		Salt:            salt,
		LoggerFactory:   lf,
		Registerer:      reg,
	}
	if *queueCap > 0 {
		cfg.Queue.Capacity = *queueCap
	}
	if *admitRate > 0 {
		cfg.Queue.ThrottleEvery = time.Second / time.Duration(*admitRate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, err := gate.New(ctx, cfg)
	if err != nil {
		log.Fatalf("create gate: %v", err)
	}

	var metrics *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		metrics = &http.Server{Addr: *metricsAddr, Handler: mux}
		mlog := lf.NewLogger("metrics")
		go func() {
			mlog.Infof("serving /metrics on %s", *metricsAddr)
			if err := metrics.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				mlog.Errorf("metrics server: %v", err)
			}
		}()
	}

	if err := g.Start(); err != nil {
		log.Fatalf("start gate: %v", err)
	}

	<-ctx.Done()

	log.Println("Shutting down...")
	if metrics != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = metrics.Shutdown(shutdownCtx)
		cancel()
	}
	if err := g.Stop(); err != nil {
		log.Fatalf("stop gate: %v", err)
	}
}
