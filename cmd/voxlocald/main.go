package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/util"

	vxconfig "github.com/voxlocal/voxlocal/config"
	"github.com/voxlocal/voxlocal/internal/speech/handler"
	"github.com/voxlocal/voxlocal/internal/speech/orchestrator"
	"github.com/voxlocal/voxlocal/internal/speech/registry"
	"github.com/voxlocal/voxlocal/internal/speech/voices"
	"github.com/voxlocal/voxlocal/internal/webutil"
	"github.com/voxlocal/voxlocal/pkg/relay"
	"github.com/voxlocal/voxlocal/pkg/urlvalidation"

	// Register speech backends via init().
	_ "github.com/voxlocal/voxlocal/internal/speech/backends/fasterwhisper"
	_ "github.com/voxlocal/voxlocal/internal/speech/backends/piper"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[vxconfig.VoxConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("voxlocald"),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	catalog, err := registry.Discover(cfg.ModelRoot, cfg.DefaultModelPath(), cfg.TTSModelRoot)
	if err != nil {
		log.Fatalf("discovering models: %v", err)
	}

	manifest, err := voices.Load(cfg.VoicesManifestPath())
	if err != nil {
		log.Fatalf("loading voices manifest: %v", err)
	}

	orch := orchestrator.New(catalog, manifest, orchestrator.Defaults{
		Device:       cfg.Device,
		ComputeType:  cfg.ComputeType,
		STTBackend:   cfg.STTBackend,
		TTSBackend:   cfg.TTSBackend,
		WhisperBin:   cfg.WhisperBin,
		PiperBin:     cfg.PiperBin,
		DefaultVoice: cfg.DefaultTTSModel,
	})

	slog.InfoContext(ctx, "preloading models",
		slog.String("model_root", cfg.ModelRoot),
		slog.String("device", cfg.Device))
	if err := orch.Preload(ctx); err != nil {
		util.Log(ctx).WithError(err).Error("default model failed to load")
		os.Exit(1)
	}

	forwarder := relay.NewForwarder(relay.ForwarderConfig{
		URL:        cfg.ForwardURL,
		Secret:     cfg.ForwardSecret,
		TimeoutSec: cfg.ForwardTimeoutSec,
	}, pool, urlvalidation.AllowPrivateIPs())

	h := handler.NewHandler(orch, forwarder, relay.NewStore(), cfg.ForwardURL)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv.Init(ctx, frame.WithHTTPHandler(webutil.H2CHandler(mux)))

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}
