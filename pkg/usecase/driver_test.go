package usecase_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/icloudpull/pkg/domain/model"
	"github.com/m-mizutani/icloudpull/pkg/infra/localfs"
	"github.com/m-mizutani/icloudpull/pkg/usecase"
)

func collect(events *[]model.Event) func(model.Event) {
	return func(ev model.Event) {
		*events = append(*events, ev)
	}
}

func TestDriver_DownloadAll_Scenario(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("original"), 0644))

	a := &mockPhoto{filename: "a.jpg", content: "A"}
	unnamed := &mockPhoto{filename: "", content: "B"}
	c := &mockPhoto{filename: "c.jpg", content: "C"}

	var events []model.Event
	report, err := usecase.NewDriver().DownloadAll(ctx, newSession(a, unnamed, c), localfs.New(dir), collect(&events))
	gt.NoError(t, err)

	gt.Equal(t, report.Total, 3)
	gt.Equal(t, report.Downloaded, 2)
	gt.Equal(t, report.Skipped, 1)
	gt.Equal(t, len(report.Errors), 0)
	gt.False(t, report.FinishedAt.IsZero())

	// skipped photo is neither fetched nor overwritten
	gt.Equal(t, a.downloads, 0)
	data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "original")

	data, err = os.ReadFile(filepath.Join(dir, "item_1.jpg"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "B")

	data, err = os.ReadFile(filepath.Join(dir, "c.jpg"))
	gt.NoError(t, err)
	gt.Equal(t, string(data), "C")

	// start event followed by one item event per photo
	gt.A(t, events).Length(4)
	gt.Equal(t, events[0].Kind, model.EventStart)
	gt.Equal(t, events[0].Total, 3)
	gt.Equal(t, events[1].Outcome, model.ItemSkipped)
	gt.Equal(t, events[1].Filename, "a.jpg")
	gt.Equal(t, events[2].Outcome, model.ItemDownloaded)
	gt.Equal(t, events[2].Filename, "item_1.jpg")
	gt.Equal(t, events[3].Outcome, model.ItemDownloaded)
	gt.Equal(t, events[3].Processed(), 3)
}

func TestDriver_DownloadAll_NoPhotos(t *testing.T) {
	ctx := context.Background()
	dest := newMemDest()

	var events []model.Event
	report, err := usecase.NewDriver().DownloadAll(ctx, newSession(), dest, collect(&events))
	gt.NoError(t, err)
	gt.Equal(t, report.Total, 0)
	gt.Equal(t, report.Downloaded, 0)
	gt.Equal(t, dest.writes, 0)

	gt.A(t, events).Length(1)
	gt.Equal(t, events[0].Kind, model.EventStatus)
	gt.Equal(t, events[0].Message, model.ErrNoPhotos.Error())
}

func TestDriver_DownloadAll_NoPhotosWithoutDestination(t *testing.T) {
	report, err := usecase.NewDriver().DownloadAll(context.Background(), newSession(), nil, nil)
	gt.NoError(t, err)
	gt.Equal(t, report.Total, 0)
}

func TestDriver_DownloadAll_FallbackNames(t *testing.T) {
	ctx := context.Background()
	dest := newMemDest()

	session := newSession(
		&mockPhoto{content: "0"},
		&mockPhoto{filename: "named.png", content: "1"},
		&mockPhoto{content: "2"},
	)

	report, err := usecase.NewDriver().DownloadAll(ctx, session, dest, nil)
	gt.NoError(t, err)
	gt.Equal(t, report.Downloaded, 3)
	gt.Equal(t, string(dest.files["item_0.jpg"]), "0")
	gt.Equal(t, string(dest.files["named.png"]), "1")
	gt.Equal(t, string(dest.files["item_2.jpg"]), "2")
}

func TestDriver_DownloadAll_PartialFailure(t *testing.T) {
	ctx := context.Background()
	dest := newMemDest()
	errFetch := errors.New("fetch failed")
	errDisk := errors.New("disk full")
	dest.writeErr["c.jpg"] = errDisk

	session := newSession(
		&mockPhoto{filename: "a.jpg", downloadErr: errFetch},
		&mockPhoto{filename: "b.jpg", content: "B"},
		&mockPhoto{filename: "c.jpg", content: "C"},
		&mockPhoto{filename: "d.jpg", content: "D"},
	)

	var events []model.Event
	report, err := usecase.NewDriver().DownloadAll(ctx, session, dest, collect(&events))
	gt.NoError(t, err)

	gt.Equal(t, report.Total, 4)
	gt.Equal(t, report.Downloaded, 2)
	gt.A(t, report.Errors).Length(2)
	gt.Equal(t, report.Errors[0].Index, 0)
	gt.Equal(t, report.Errors[0].Filename, "a.jpg")
	gt.Error(t, report.Errors[0]).Is(errFetch)
	gt.Equal(t, report.Errors[1].Index, 2)
	gt.Error(t, report.Errors[1]).Is(errDisk)

	gt.Equal(t, string(dest.files["b.jpg"]), "B")
	gt.Equal(t, string(dest.files["d.jpg"]), "D")

	gt.Equal(t, events[1].Outcome, model.ItemFailed)
	gt.V(t, events[1].Err).NotNil()
	gt.Equal(t, events[4].Outcome, model.ItemDownloaded)
}

func TestDriver_DownloadAll_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("listing failure", func(t *testing.T) {
		errList := errors.New("list failed")
		_, err := usecase.NewDriver().DownloadAll(ctx, &mockSession{listErr: errList}, newMemDest(), nil)
		gt.Error(t, err).Is(errList)
	})

	t.Run("no destination", func(t *testing.T) {
		session := newSession(&mockPhoto{filename: "a.jpg"})
		_, err := usecase.NewDriver().DownloadAll(ctx, session, nil, nil)
		gt.Error(t, err).Is(model.ErrNoFolderSelected)
	})

	t.Run("destination not writable", func(t *testing.T) {
		errPerm := errors.New("permission denied")
		dest := newMemDest()
		dest.validateErr = errPerm
		photo := &mockPhoto{filename: "a.jpg"}

		_, err := usecase.NewDriver().DownloadAll(ctx, newSession(photo), dest, nil)
		gt.Error(t, err).Is(errPerm)
		gt.Equal(t, photo.downloads, 0)
		gt.Equal(t, dest.writes, 0)
	})

	t.Run("cancelled context stops at item boundary", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		dest := newMemDest()
		session := newSession(
			&mockPhoto{filename: "a.jpg", content: "A"},
			&mockPhoto{filename: "b.jpg", content: "B"},
		)

		report, err := usecase.NewDriver().DownloadAll(cctx, session, dest, func(ev model.Event) {
			if ev.Kind == model.EventItem {
				cancel()
			}
		})
		gt.Error(t, err).Is(context.Canceled)
		gt.Equal(t, report.Downloaded, 1)
		gt.Equal(t, dest.writes, 1)
	})
}

func TestDriver_DownloadAll_Options(t *testing.T) {
	ctx := context.Background()

	t.Run("limit", func(t *testing.T) {
		dest := newMemDest()
		session := newSession(
			&mockPhoto{filename: "a.jpg"},
			&mockPhoto{filename: "b.jpg"},
			&mockPhoto{filename: "c.jpg"},
		)

		report, err := usecase.NewDriver(usecase.WithLimit(2)).DownloadAll(ctx, session, dest, nil)
		gt.NoError(t, err)
		gt.Equal(t, report.Total, 2)
		gt.Equal(t, dest.writes, 2)
	})

	t.Run("dry run", func(t *testing.T) {
		dest := newMemDest("a.jpg")
		b := &mockPhoto{filename: "b.jpg"}

		report, err := usecase.NewDriver(usecase.WithDryRun(true)).DownloadAll(ctx, newSession(&mockPhoto{filename: "a.jpg"}, b), dest, nil)
		gt.NoError(t, err)
		gt.Equal(t, report.Skipped, 1)
		gt.Equal(t, report.Planned, 1)
		gt.Equal(t, report.Downloaded, 0)
		gt.Equal(t, b.downloads, 0)
		gt.Equal(t, dest.writes, 0)
	})
}
