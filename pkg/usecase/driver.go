package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/icloudpull/pkg/domain/interfaces"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/utils/logging"
)

type driver struct {
	limit  int
	dryRun bool
}

// DriverOption is a functional option for the download driver
type DriverOption func(*driver)

// WithLimit caps the number of listed photos that are processed. Zero means no limit.
func WithLimit(limit int) DriverOption {
	return func(d *driver) {
		d.limit = limit
	}
}

// WithDryRun makes the driver report what it would download without writing
func WithDryRun(dryRun bool) DriverOption {
	return func(d *driver) {
		d.dryRun = dryRun
	}
}

// NewDriver creates a DownloadUseCase
func NewDriver(opts ...DriverOption) interfaces.DownloadUseCase {
	d := &driver{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadAll walks the photo listing once. A failure on one photo is
// recorded in the report and does not stop the remaining photos.
func (uc *driver) DownloadAll(ctx context.Context, session interfaces.Session, dest interfaces.Destination, progress interfaces.ProgressFunc) (*model.Report, error) {
	logger := logging.From(ctx)

	emit := func(ev model.Event) {
		if progress != nil {
			progress(ev)
		}
	}

	report := model.NewReport()
	defer func() {
		report.FinishedAt = time.Now()
	}()

	photos, err := session.Photos(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list photos")
	}
	if uc.limit > 0 && len(photos) > uc.limit {
		photos = photos[:uc.limit]
	}
	report.Total = len(photos)

	if len(photos) == 0 {
		logger.Info("No photos found", "run_id", report.RunID)
		emit(model.Event{Kind: model.EventStatus, Message: model.ErrNoPhotos.Error()})
		return report, nil
	}

	if dest == nil {
		return nil, model.ErrNoFolderSelected
	}
	if err := dest.Validate(ctx); err != nil {
		return nil, goerr.Wrap(err, "destination is not writable", goerr.V("dest", dest.String()))
	}

	logger.Info("Downloading photos",
		"run_id", report.RunID,
		"total", report.Total,
		"dest", dest.String(),
		"dry_run", uc.dryRun,
	)
	emit(model.Event{Kind: model.EventStart, Total: report.Total})

	for index, photo := range photos {
		if err := ctx.Err(); err != nil {
			return report, goerr.Wrap(err, "download interrupted",
				goerr.V("processed", report.Processed()),
				goerr.V("total", report.Total),
			)
		}

		filename := model.TargetFilename(photo.Filename(), index)
		outcome, err := uc.process(ctx, photo, filename, dest)
		if err != nil {
			logger.Warn("Failed to download photo",
				"error", err,
				"index", index,
				"filename", filename,
			)
			report.AddError(index, filename, err)
		} else {
			report.Record(outcome)
		}

		emit(model.Event{
			Kind:     model.EventItem,
			Index:    index,
			Total:    report.Total,
			Filename: filename,
			Outcome:  outcome,
			Err:      err,
		})
	}

	logger.Info("Download finished",
		"run_id", report.RunID,
		"downloaded", report.Downloaded,
		"skipped", report.Skipped,
		"failed", len(report.Errors),
	)

	return report, nil
}

// process handles one photo. The existence check always comes first so an
// existing file is never overwritten.
func (uc *driver) process(ctx context.Context, photo interfaces.Photo, filename string, dest interfaces.Destination) (model.ItemOutcome, error) {
	exists, err := dest.Exists(ctx, filename)
	if err != nil {
		return model.ItemFailed, goerr.Wrap(err, "failed to check existing file", goerr.V("filename", filename))
	}
	if exists {
		return model.ItemSkipped, nil
	}
	if uc.dryRun {
		return model.ItemPlanned, nil
	}

	body, err := photo.Download(ctx)
	if err != nil {
		return model.ItemFailed, goerr.Wrap(err, "failed to fetch photo", goerr.V("filename", filename))
	}
	defer body.Close()

	size, err := dest.Write(ctx, filename, body)
	if err != nil {
		return model.ItemFailed, goerr.Wrap(err, "failed to write photo", goerr.V("filename", filename))
	}

	logging.From(ctx).Debug("Saved photo", "filename", filename, "size_bytes", size)
	return model.ItemDownloaded, nil
}
