package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"histop/internal/core/config"
	domainErrors "histop/internal/core/errors"
	"histop/internal/data/archive"
	"histop/internal/shared/observability"
	"histop/internal/ui/report"
)

func openArchive(cfg *config.Config, op string) (*archive.Store, error) {
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		wrapped := domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to open archive")
		wrapped = domainErrors.AddContext(wrapped, domainErrors.CtxOperation, op)
		return nil, domainErrors.AddContext(wrapped, domainErrors.CtxPath, cfg.Archive.Path)
	}
	return store, nil
}

// record saves the full frequency map of snap, not just the displayed rows.
func (rt *runtime) record(ctx context.Context, cfg *config.Config, snap snapshot) error {
	_, span := observability.Tracer.Start(ctx, "histop.archive.save", trace.WithAttributes(
		attribute.String("histop.archive", cfg.Archive.Path),
	))
	defer span.End()
	start := time.Now()
	defer func() { observability.ArchiveSaveDuration.Observe(time.Since(start).Seconds()) }()

	store, err := openArchive(cfg, "record")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer store.Close()

	source := snap.source
	if source != "-" {
		if abs, err := filepath.Abs(source); err == nil {
			source = abs
		}
	}

	saved, err := store.SaveRun(archive.Run{
		SourcePath: source,
		Dialect:    snap.result.Dialect.String(),
		Counts:     snap.result.Counts,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		wrapped := domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to record run")
		return domainErrors.AddContext(wrapped, domainErrors.CtxPath, store.Path())
	}
	span.SetAttributes(attribute.String("histop.run_id", saved.ID))
	slog.Info("recorded run", "id", saved.ID, "total", saved.Total, "distinct", saved.Distinct, "archive", store.Path())
	return nil
}

func (rt *runtime) listRuns(cfg *config.Config, opts cliOptions) error {
	since, err := report.ParseSince(opts.since)
	if err != nil {
		return domainErrors.Wrap(err, domainErrors.CodeValidationError, "invalid --since")
	}
	store, err := openArchive(cfg, "runs")
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.LoadRuns(since, opts.limit)
	if err != nil {
		return domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to load runs")
	}
	return rt.write(report.RenderRunsTSV(runs))
}

func (rt *runtime) showTrend(cfg *config.Config, opts cliOptions) error {
	since, err := report.ParseSince(opts.since)
	if err != nil {
		return domainErrors.Wrap(err, domainErrors.CodeValidationError, "invalid --since")
	}
	command := strings.TrimSpace(opts.trend)

	store, err := openArchive(cfg, "trend")
	if err != nil {
		return err
	}
	defer store.Close()

	points, err := store.LoadTrend(command, since)
	if err != nil {
		return domainErrors.Wrap(err, domainErrors.CodeInternal, "failed to load trend")
	}
	return rt.write(report.RenderTrendTSV(command, points))
}
