package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/basel-ax/museframe/internal/domain"
	"github.com/basel-ax/museframe/internal/repository"
	"github.com/basel-ax/museframe/internal/storage"
	"github.com/basel-ax/museframe/internal/widget"
)

// ErrNothingToShow is returned when neither a fresh nor a saved image exists
var ErrNothingToShow = errors.New("no image to show")

// RefreshOptions wires the refresh service
type RefreshOptions struct {
	Widget     *widget.Widget
	Downloader domain.ImageDownloader
	Store      *storage.ImageStore
	Repo       repository.EntryRepository
	Display    domain.Display
	Logger     *zap.SugaredLogger
	Now        func() time.Time
}

// RefreshService fetches a new entry and puts its image on the display,
// falling back to the newest saved image
type RefreshService struct {
	widget     *widget.Widget
	downloader domain.ImageDownloader
	store      *storage.ImageStore
	repo       repository.EntryRepository
	display    domain.Display
	log        *zap.SugaredLogger
	now        func() time.Time

	group singleflight.Group
}

// NewRefreshService creates a new refresh service
func NewRefreshService(opts RefreshOptions) *RefreshService {
	s := &RefreshService{
		widget:     opts.Widget,
		downloader: opts.Downloader,
		store:      opts.Store,
		repo:       opts.Repo,
		display:    opts.Display,
		log:        opts.Logger,
		now:        opts.Now,
	}

	// Set default values if not provided
	if s.repo == nil {
		s.repo = repository.NoopEntryRepository{}
	}
	if s.log == nil {
		s.log = zap.NewNop().Sugar()
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// Refresh runs one refresh. Calls arriving while a refresh is running wait
// for it and share its result. The run is detached from the caller: a caller
// whose ctx ends stops waiting, the run and the other callers carry on.
func (s *RefreshService) Refresh(ctx context.Context) (*domain.EntryRecord, error) {
	runCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan("refresh", func() (interface{}, error) {
		return s.refresh(runCtx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.log.Debug("shared the result of a concurrent refresh")
		}
		if res.Err != nil {
			return nil, res.Err
		}
		rec := *res.Val.(*domain.EntryRecord)
		return &rec, nil
	case <-ctx.Done():
		s.log.Warnw("stopped waiting for refresh", "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (s *RefreshService) refresh(ctx context.Context) (*domain.EntryRecord, error) {
	s.log.Info("refreshing image")

	rec := &domain.EntryRecord{
		Source:    domain.SourceRemote,
		FetchedAt: s.now(),
	}

	entry, err := s.widget.Mount(ctx).Wait(ctx)
	if err != nil {
		s.log.Errorw("error fetching entry", "error", err)
	} else if entry.Images.Small == "" {
		s.log.Warn("no image url found in api response")
	} else {
		rec.Prompt = entry.Prompt
		rec.ImageURL = entry.Images.Small
		rec.ImagePath, err = s.download(ctx, rec.ImageURL, rec.FetchedAt)
		if err != nil {
			s.log.Errorw("error downloading image", "url", rec.ImageURL, "error", err)
		}
	}

	if rec.ImagePath == "" {
		s.log.Warn("falling back to last saved image")

		path, err := s.store.Latest()
		if errors.Is(err, storage.ErrNoImages) {
			return nil, ErrNothingToShow
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find saved image: %w", err)
		}

		rec = &domain.EntryRecord{
			ImagePath: path,
			Source:    domain.SourceFallback,
			FetchedAt: rec.FetchedAt,
		}
	}

	if err := s.display.Show(ctx, rec.ImagePath); err != nil {
		return nil, fmt.Errorf("failed to update display: %w", err)
	}

	// History is best effort, the frame is already updated
	id, err := s.repo.Record(ctx, rec)
	if err != nil {
		s.log.Errorw("error recording entry", "error", err)
	}
	rec.ID = id

	s.log.Infow("refresh finished", "source", rec.Source, "image", rec.ImagePath)

	return rec, nil
}

func (s *RefreshService) download(ctx context.Context, url string, at time.Time) (string, error) {
	data, err := s.downloader.DownloadImage(ctx, url)
	if err != nil {
		return "", err
	}

	path, err := s.store.Save(data, at)
	if err != nil {
		return "", err
	}

	s.log.Infow("saved new image", "path", path)
	return path, nil
}

// Latest returns the newest recorded refresh. Without history it reports the
// newest saved image.
func (s *RefreshService) Latest(ctx context.Context) (*domain.EntryRecord, error) {
	rec, err := s.repo.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest entry: %w", err)
	}
	if rec != nil {
		return rec, nil
	}

	path, err := s.store.Latest()
	if errors.Is(err, storage.ErrNoImages) {
		return nil, ErrNothingToShow
	}
	if err != nil {
		return nil, err
	}

	return &domain.EntryRecord{ImagePath: path, Source: domain.SourceFallback}, nil
}

// History lists recorded refreshes, newest first
func (s *RefreshService) History(ctx context.Context, limit int) ([]domain.EntryRecord, error) {
	return s.repo.List(ctx, limit)
}

// LatestImage returns the bytes of the newest saved image
func (s *RefreshService) LatestImage() ([]byte, error) {
	path, err := s.store.Latest()
	if errors.Is(err, storage.ErrNoImages) {
		return nil, ErrNothingToShow
	}
	if err != nil {
		return nil, err
	}
	return s.store.Read(path)
}

// Widget returns the widget the service mounts on every refresh
func (s *RefreshService) Widget() *widget.Widget {
	return s.widget
}
