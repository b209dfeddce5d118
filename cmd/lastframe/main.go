package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ysyms/lastFrameV2/internal/i18n"
	"github.com/ysyms/lastFrameV2/internal/infra/config"
	"github.com/ysyms/lastFrameV2/internal/infra/ffmpeg"
	"github.com/ysyms/lastFrameV2/internal/infra/raster"
	"github.com/ysyms/lastFrameV2/internal/infra/watcher"
	"github.com/ysyms/lastFrameV2/internal/usecase"
	"github.com/ysyms/lastFrameV2/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code: 0 when every file was extracted, 1 when
// any failed, 2 on bad usage. Deferred cleanup always runs before it returns.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lastframe", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("out", "", "directory for extracted frames (default: next to each video)")
	watchDir := fs.String("watch", "", "directory to watch for new videos")
	settle := fs.Duration("settle", 2*time.Second, "quiet period before a watched file is processed")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: lastframe [-out dir] [-watch dir] [-settle d] [video ...]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 && *watchDir == "" {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	compression, err := raster.ParseCompression(cfg.PNGCompression)
	if err != nil {
		log.Error("invalid png compression", zap.Error(err))
		return 1
	}

	decoder := ffmpeg.NewDecoder(ffmpeg.DecoderConfig{
		FFmpegPath:  cfg.FFmpegPath,
		FFprobePath: cfg.FFprobePath,
		TempDir:     cfg.TempDir,
	}, log)
	extractor := usecase.NewLastFrameExtractor(decoder, raster.NewEncoder(compression), log,
		usecase.ExtractorConfig{
			MetadataTimeout: cfg.MetadataTimeout(),
			SeekTimeout:     cfg.SeekTimeout(),
			SeekBackoff:     cfg.SeekBackoffSeconds,
		},
	)
	local := usecase.NewLocalFileExtractor(extractor, log)
	lang := i18n.Match(cfg.DefaultLanguage)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extract := func(ctx context.Context, path string) bool {
		dst, err := local.ExtractFile(ctx, path, *outDir)
		if err != nil {
			log.Error("extraction failed", zap.String("video", path), zap.Error(err))
			fmt.Fprintf(stderr, "%s: %s\n", path, i18n.ErrorMessage(lang, err))
			return false
		}
		fmt.Fprintln(stdout, dst)
		return true
	}

	failed := 0
	for _, path := range fs.Args() {
		if !extract(ctx, path) {
			failed++
		}
	}

	if *watchDir != "" {
		w, err := watcher.New(*watchDir, *settle, usecase.IsFrameOutput, func(ctx context.Context, path string) {
			extract(ctx, path)
		}, log)
		if err != nil {
			log.Error("cannot watch directory", zap.String("dir", *watchDir), zap.Error(err))
			return 1
		}
		defer w.Close()

		if err := w.Run(ctx); err != nil {
			log.Error("watcher stopped", zap.Error(err))
		}
	}

	if failed > 0 {
		return 1
	}
	return 0
}
