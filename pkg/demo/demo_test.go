package demo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/tangleview/pkg/events"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	events []events.BlockCreated
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	if e, ok := event.(events.BlockCreated); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func seededFeed(t *testing.T, n int, opts ...FeedOption) *Feed {
	t.Helper()
	opts = append([]FeedOption{WithSeed(7)}, opts...)
	f := NewFeed(opts...)
	require.NoError(t, f.Seed(context.Background(), n))
	return f
}

func TestFeedBuildsValidDAG(t *testing.T) {
	f := seededFeed(t, 40, WithMaxParents(3))
	require.Equal(t, 40, f.Len())

	blocks := f.Page(1, 40)
	require.Len(t, blocks, 40)

	genesis := blocks[len(blocks)-1]
	assert.Empty(t, genesis.ParentHashes)
	assert.NotNil(t, genesis.ParentHashes, "genesis serializes an empty array")

	position := make(map[string]int, len(blocks))
	for i, b := range blocks {
		position[b.Hash] = i
	}

	for i, b := range blocks[:len(blocks)-1] {
		assert.Len(t, b.Hash, HashLength)
		assert.Len(t, b.Signature, SignatureLength)
		assert.NotEmpty(t, b.ParentHashes)
		assert.LessOrEqual(t, len(b.ParentHashes), 3)

		seen := map[string]bool{}
		for _, p := range b.ParentHashes {
			assert.False(t, seen[p], "duplicate parent %s", p)
			seen[p] = true

			at, ok := position[p]
			require.True(t, ok, "parent %s must exist", p)
			assert.Greater(t, at, i, "parent must be older than its child")
		}
	}
}

func TestFeedTips(t *testing.T) {
	f := seededFeed(t, 20)

	approved := map[string]bool{}
	for _, b := range f.Page(1, 20) {
		for _, p := range b.ParentHashes {
			approved[p] = true
		}
	}

	tips := f.Tips()
	require.NotEmpty(t, tips)
	for _, tip := range tips {
		assert.False(t, approved[tip], "tip %s is already approved", tip)
	}
}

func TestFeedPage(t *testing.T) {
	f := seededFeed(t, 25)
	all := f.Page(1, 25)

	first := f.Page(1, 10)
	require.Len(t, first, 10)
	assert.Equal(t, all[:10], first)

	third := f.Page(3, 10)
	require.Len(t, third, 5)
	assert.Equal(t, all[20:], third)

	assert.Empty(t, f.Page(4, 10))
	assert.Len(t, f.Page(0, 0), tangle.DefaultPerPage)
}

func TestFeedPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	clock := time.Unix(1700000000, 0)
	f := NewFeed(WithSeed(1), WithPublisher(pub), WithClock(func() time.Time { return clock }))

	block, err := f.Add(context.Background(), tangle.SensorReading{PM25: 12, CO2: 400})
	require.NoError(t, err)

	assert.Equal(t, tangle.Timestamp(1700000000), block.Timestamp)
	assert.Equal(t, 12.0, block.SensorData[tangle.KeyPM25])
	assert.Equal(t, float64(1700000000), block.SensorData[tangle.KeyTimestamp])

	require.Len(t, pub.events, 1)
	assert.Equal(t, []string{events.TopicBlockCreated}, pub.topics)
	assert.Equal(t, block.Hash, pub.events[0].Hash)
	assert.Equal(t, int64(1700000000), pub.events[0].Timestamp)

	got, ok := f.Block(block.Hash)
	require.True(t, ok)
	assert.Equal(t, block, got)
}

func TestFeedRun(t *testing.T) {
	f := NewFeed(WithSeed(2))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return f.Len() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestFeedConcurrentWriters(t *testing.T) {
	f := NewFeed(WithSeed(3), WithMaxParents(3))
	handler := NewServer(f).Handler()
	ctx := context.Background()

	const workers, perWorker = 4, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				_, err := f.Generate(ctx)
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				rec := httptest.NewRecorder()
				body := strings.NewReader(`{"pm25": 10, "co2": 400}`)
				handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/blocks", body))
				assert.Equal(t, http.StatusCreated, rec.Code)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 2*workers*perWorker, f.Len())
	for _, b := range f.Page(1, f.Len()) {
		for _, p := range b.ParentHashes {
			_, ok := f.Block(p)
			assert.True(t, ok, "parent %s must exist", p)
		}
	}
}

func TestServerRoundTrip(t *testing.T) {
	f := seededFeed(t, 15)
	ts := httptest.NewServer(NewServer(f).Handler())
	defer ts.Close()

	fetcher := tangle.NewHTTPFetcher(ts.URL, tangle.WithPerPage(12))
	ctx := context.Background()

	records, err := fetcher.FetchRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 12)

	newest := f.Page(1, 1)[0]
	assert.Equal(t, newest.Hash, records[0].ID)
	assert.Equal(t, newest.ParentHashes, records[0].ParentIDs)

	rec, err := fetcher.FetchRecord(ctx, newest.Hash)
	require.NoError(t, err)
	assert.Equal(t, newest.Signature, rec.Signature)

	_, err = fetcher.FetchRecord(ctx, "missing")
	var notFound *tangle.ErrBlockNotFound
	assert.ErrorAs(t, err, &notFound)

	status, err := fetcher.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, HealthStatus, status)
}

func TestServerCreateBlock(t *testing.T) {
	f := seededFeed(t, 3)
	handler := NewServer(f).Handler()

	body, err := json.Marshal(tangle.SensorReading{PM25: 55.5, CO2: 450, Temperature: 21, Humidity: 40})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/blocks", bytes.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp tangle.Response[tangle.Block]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 55.5, resp.Data.SensorData[tangle.KeyPM25])
	assert.NotEmpty(t, resp.Data.ParentHashes)
	assert.Equal(t, 4, f.Len())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/blocks", strings.NewReader("{not json")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 4, f.Len())

	var failed tangle.Response[struct{}]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Error, "invalid sensor data")
}

func TestServerRejectsBadPaging(t *testing.T) {
	handler := NewServer(seededFeed(t, 3)).Handler()

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"defaults", "/api/blocks", http.StatusOK},
		{"explicit", "/api/blocks?page=1&per_page=2", http.StatusOK},
		{"clamped", "/api/blocks?per_page=5000", http.StatusOK},
		{"bad page", "/api/blocks?page=zero", http.StatusBadRequest},
		{"negative per page", "/api/blocks?per_page=-1", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}
}

func TestServerMetricsRoute(t *testing.T) {
	f := seededFeed(t, 1)

	rec := httptest.NewRecorder()
	NewServer(f).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	NewServer(f, WithMetricsRoute(true)).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tangleview_demo_blocks_total")
}
