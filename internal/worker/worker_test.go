package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curricula/backend/pkg/queue"
	"github.com/curricula/backend/pkg/storage"
)

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	body []byte
	ct   string
	err  error
}

func (f *fakeUploader) ImagesBucket() string { return "images" }

func (f *fakeUploader) Upload(_ context.Context, bucket, key, contentType string, body io.Reader, _ int64, publicRead bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if !publicRead {
		return "", errors.New("images must be public")
	}
	f.keys = append(f.keys, key)
	f.body = b
	f.ct = contentType
	return storage.PublicURL(bucket, "us-east-1", key), nil
}

type fakeStore struct {
	mu     sync.Mutex
	images map[int64]string
}

func (f *fakeStore) SetImageURL(_ context.Context, id int64, u string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.images == nil {
		f.images = map[int64]string{}
	}
	f.images[id] = u
	return nil
}

type countingCache struct{ n int }

func (c *countingCache) Invalidate(context.Context) error {
	c.n++
	return nil
}

func mirrorJob(t *testing.T, src string) *queue.Job {
	t.Helper()
	job, err := queue.NewJob(queue.JobTypeMirrorImage, queue.MirrorImagePayload{ResourceID: 7, ResourceSlug: "deep-work", SourceURL: src})
	require.NoError(t, err)
	return job
}

func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("\x89PNG"))
		case "/page":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html></html>"))
		case "/huge":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write(bytes.Repeat([]byte{1}, storage.MaxImageSize+10))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProcessMirrorsImage(t *testing.T) {
	srv := imageServer(t)
	up, store, cache := &fakeUploader{}, &fakeStore{}, &countingCache{}
	p := NewImageProcessor(store, up, nil, cache, nil)

	require.NoError(t, p.Process(context.Background(), mirrorJob(t, srv.URL+"/cover.png")))
	assert.Equal(t, []string{"resources/deep-work.png"}, up.keys)
	assert.Equal(t, "image/png", up.ct)
	assert.Equal(t, []byte("\x89PNG"), up.body)
	assert.Equal(t, "https://images.s3.us-east-1.amazonaws.com/resources/deep-work.png", store.images[7])
	assert.Equal(t, 1, cache.n)
}

func TestProcessFailures(t *testing.T) {
	srv := imageServer(t)
	store := &fakeStore{}

	tests := []struct {
		name string
		job  *queue.Job
		up   *fakeUploader
	}{
		{"not an image", mirrorJob(t, srv.URL+"/page"), &fakeUploader{}},
		{"missing", mirrorJob(t, srv.URL+"/gone.png"), &fakeUploader{}},
		{"too large", mirrorJob(t, srv.URL+"/huge"), &fakeUploader{}},
		{"bad scheme", mirrorJob(t, "file:///etc/passwd"), &fakeUploader{}},
		{"upload error", mirrorJob(t, srv.URL+"/cover.png"), &fakeUploader{err: errors.New("denied")}},
		{"wrong type", &queue.Job{Type: "other", Payload: json.RawMessage(`{}`)}, &fakeUploader{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewImageProcessor(store, tt.up, nil, nil, nil)
			assert.Error(t, p.Process(context.Background(), tt.job))
		})
	}
	assert.Empty(t, store.images)
}

type scriptedJobs struct {
	mu      sync.Mutex
	pending []*queue.Job
	retried []*queue.Job
	done    chan struct{}
}

func (s *scriptedJobs) Dequeue(ctx context.Context, _ time.Duration) (*queue.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		select {
		case <-s.done:
		default:
			close(s.done)
		}
		return nil, nil
	}
	job := s.pending[0]
	s.pending = s.pending[1:]
	return job, nil
}

func (s *scriptedJobs) Retry(_ context.Context, job *queue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retried = append(s.retried, job)
	return nil
}

func TestRunProcessesAndRetries(t *testing.T) {
	srv := imageServer(t)
	good, bad := mirrorJob(t, srv.URL+"/cover.png"), mirrorJob(t, srv.URL+"/page")
	jobs := &scriptedJobs{pending: []*queue.Job{good, bad}, done: make(chan struct{})}
	store := &fakeStore{}
	p := NewImageProcessor(store, &fakeUploader{}, jobs, nil, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(stopped)
	}()

	select {
	case <-jobs.done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not drain the queue")
	}
	cancel()
	<-stopped

	jobs.mu.Lock()
	defer jobs.mu.Unlock()
	require.Len(t, jobs.retried, 1)
	assert.Equal(t, bad.ID, jobs.retried[0].ID)
	assert.Contains(t, store.images, int64(7))
}
