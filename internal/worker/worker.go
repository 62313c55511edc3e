package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/curricula/backend/pkg/queue"
	"github.com/curricula/backend/pkg/storage"
)

// ErrNotImage is returned when the source URL does not serve an image.
var ErrNotImage = errors.New("source is not an image")

// JobSource yields image mirror jobs and takes failed ones back.
type JobSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	ImagesBucket() string
	Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error)
}

// ImageStore points a resource at its mirrored image.
type ImageStore interface {
	SetImageURL(ctx context.Context, resourceID int64, imageURL string) error
}

// Invalidator drops cached catalog reads.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ImageProcessor mirrors published resource images: download from the source URL,
// upload to the images bucket, point the resource at the copy.
type ImageProcessor struct {
	store      ImageStore
	uploader   Uploader
	jobs       JobSource
	cache      Invalidator
	httpClient *http.Client
	logger     *zap.Logger
	backoff    time.Duration
	poll       time.Duration
}

// NewImageProcessor creates an image mirror processor. cache may be nil.
func NewImageProcessor(store ImageStore, uploader Uploader, jobs JobSource, cache Invalidator, logger *zap.Logger) *ImageProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProcessor{
		store:      store,
		uploader:   uploader,
		jobs:       jobs,
		cache:      cache,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		backoff:    queue.RetryBackoff,
		poll:       5 * time.Second,
	}
}

// Process executes one image mirror job.
func (p *ImageProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeMirrorImage {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.MirrorImagePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	src, err := url.Parse(payload.SourceURL)
	if err != nil || (src.Scheme != "http" && src.Scheme != "https") {
		return fmt.Errorf("invalid source url %q", payload.SourceURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, payload.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status: %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !storage.IsImage(contentType) {
		return fmt.Errorf("%w: %q", ErrNotImage, contentType)
	}
	if resp.ContentLength > storage.MaxImageSize {
		return fmt.Errorf("image too large: %d bytes", resp.ContentLength)
	}
	body := &limitedReader{r: resp.Body, n: storage.MaxImageSize}

	key := storage.ResourceImageKey(payload.ResourceSlug, storage.ImageExtension(contentType, src.Path))
	publicURL, err := p.uploader.Upload(ctx, p.uploader.ImagesBucket(), key, storage.MediaType(contentType), body, resp.ContentLength, true)
	if err != nil {
		return fmt.Errorf("s3 upload: %w", err)
	}

	if err := p.store.SetImageURL(ctx, payload.ResourceID, publicURL); err != nil {
		p.logger.Error("update resource image failed", zap.Error(err), zap.Int64("resource_id", payload.ResourceID))
		return fmt.Errorf("update db: %w", err)
	}
	if p.cache != nil {
		if err := p.cache.Invalidate(ctx); err != nil {
			p.logger.Warn("invalidate catalog cache", zap.Error(err))
		}
	}

	p.logger.Info("image mirrored", zap.Int64("resource_id", payload.ResourceID), zap.String("s3_key", key))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ImageProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("image worker stopping")
			return
		default:
		}

		job, err := p.jobs.Dequeue(ctx, p.poll)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.jobs.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ImageProcessor) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(p.backoff):
	}
}

// limitedReader fails instead of silently truncating once more than n bytes are read.
type limitedReader struct {
	r io.Reader
	n int64
}

func (l *limitedReader) Read(b []byte) (int, error) {
	if l.n < 0 {
		return 0, fmt.Errorf("image exceeds %d bytes", storage.MaxImageSize)
	}
	if int64(len(b)) > l.n+1 {
		b = b[:l.n+1]
	}
	n, err := l.r.Read(b)
	l.n -= int64(n)
	if l.n < 0 {
		return n, fmt.Errorf("image exceeds %d bytes", storage.MaxImageSize)
	}
	return n, err
}
