// Package demo serves a synthetic, steadily growing tangle over the same
// HTTP API the viewer consumes, so the viewer can run without a real node.
package demo

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/utkarsh5026/tangleview/pkg/events"
	"github.com/utkarsh5026/tangleview/pkg/metrics"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

// Hash and signature shape
const (
	HashAlphabet    = "0123456789abcdef"
	HashLength      = 64
	SignatureLength = 128
)

// recentWindow is how many of the newest blocks may be picked as parents
// when there are not enough tips.
const recentWindow = 5

// Feed is an in-memory tangle. New blocks approve one or more current tips.
// A Feed is safe for concurrent use.
type Feed struct {
	mu     sync.RWMutex
	blocks []tangle.Block // oldest first
	index  map[string]int
	tips   []string

	rng        *rand.Rand
	maxParents int
	now        func() time.Time
	pub        events.Publisher
}

// FeedOption configures a Feed
type FeedOption func(*Feed)

// WithMaxParents caps the parents of a new block
func WithMaxParents(n int) FeedOption {
	return func(f *Feed) {
		if n > 0 {
			f.maxParents = n
		}
	}
}

// WithSeed makes parent choice and readings reproducible
func WithSeed(seed uint64) FeedOption {
	return func(f *Feed) {
		f.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithPublisher announces every new block on pub
func WithPublisher(pub events.Publisher) FeedOption {
	return func(f *Feed) {
		if pub != nil {
			f.pub = pub
		}
	}
}

// WithClock sets the time source for block timestamps
func WithClock(now func() time.Time) FeedOption {
	return func(f *Feed) {
		f.now = now
	}
}

// NewFeed creates an empty feed
func NewFeed(opts ...FeedOption) *Feed {
	f := &Feed{
		index:      make(map[string]int),
		rng:        rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 1)),
		maxParents: 2,
		now:        time.Now,
		pub:        &events.NoopPublisher{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Len returns the number of blocks.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.blocks)
}

// Tips returns the hashes no block approves yet.
func (f *Feed) Tips() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tips)
}

// Block returns a block by hash.
func (f *Feed) Block(hash string) (tangle.Block, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	i, ok := f.index[hash]
	if !ok {
		return tangle.Block{}, false
	}
	return f.blocks[i], true
}

// Page returns blocks newest first. page is 1-based.
func (f *Feed) Page(page, perPage int) []tangle.Block {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = tangle.DefaultPerPage
	}

	start := (page - 1) * perPage
	out := make([]tangle.Block, 0, perPage)
	for i := len(f.blocks) - 1 - start; i >= 0 && len(out) < perPage; i-- {
		out = append(out, f.blocks[i])
	}
	return out
}

// Add appends a block carrying reading. The first block is the genesis;
// later blocks approve between one and the configured maximum of tips.
func (f *Feed) Add(ctx context.Context, reading tangle.SensorReading) (tangle.Block, error) {
	hash, err := nanoid.Generate(HashAlphabet, HashLength)
	if err != nil {
		return tangle.Block{}, fmt.Errorf("generating hash: %w", err)
	}
	sig, err := nanoid.Generate(HashAlphabet, SignatureLength)
	if err != nil {
		return tangle.Block{}, fmt.Errorf("generating signature: %w", err)
	}

	now := f.now()
	if reading.Timestamp == 0 {
		reading.Timestamp = now.Unix()
	}

	f.mu.Lock()
	block := tangle.Block{
		Hash:         hash,
		Timestamp:    tangle.Timestamp(now.Unix()),
		SensorData:   reading.Payload(),
		Signature:    sig,
		ParentHashes: f.pickParents(),
	}
	f.index[hash] = len(f.blocks)
	f.blocks = append(f.blocks, block)
	f.tips = slices.DeleteFunc(f.tips, func(tip string) bool {
		return slices.Contains(block.ParentHashes, tip)
	})
	f.tips = append(f.tips, hash)
	f.mu.Unlock()

	metrics.DemoBlocksTotal.Inc()

	event := events.BlockCreated{
		Hash:         block.Hash,
		ParentHashes: block.ParentHashes,
		Timestamp:    int64(block.Timestamp),
	}
	if err := f.pub.Publish(ctx, events.TopicBlockCreated, event); err != nil {
		log.Printf("demo: publishing %s: %v", tangle.ShortID(hash), err)
	}
	return block, nil
}

// Generate adds a block with a random sensor reading.
func (f *Feed) Generate(ctx context.Context) (tangle.Block, error) {
	f.mu.Lock()
	reading := f.randomReading()
	f.mu.Unlock()
	return f.Add(ctx, reading)
}

// Seed generates n blocks up front.
func (f *Feed) Seed(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if _, err := f.Generate(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run generates a block every interval until ctx is done.
func (f *Feed) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			block, err := f.Generate(ctx)
			if err != nil {
				return err
			}
			log.Printf("demo: block %s with %d parents", tangle.ShortID(block.Hash), len(block.ParentHashes))
		}
	}
}

// pickParents chooses distinct parents, preferring tips and falling back
// to the newest blocks. Caller holds the write lock.
func (f *Feed) pickParents() []string {
	if len(f.blocks) == 0 {
		return []string{}
	}

	want := 1 + f.rng.IntN(f.maxParents)
	candidates := slices.Clone(f.tips)
	for i := len(f.blocks) - 1; i >= 0 && i >= len(f.blocks)-recentWindow; i-- {
		if !slices.Contains(candidates, f.blocks[i].Hash) {
			candidates = append(candidates, f.blocks[i].Hash)
		}
	}

	tips := min(len(f.tips), len(candidates))
	f.rng.Shuffle(tips, func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	want = min(want, len(candidates))
	return slices.Clone(candidates[:want])
}

// randomReading draws a plausible reading. Caller holds the write lock.
func (f *Feed) randomReading() tangle.SensorReading {
	round := func(v float64) float64 {
		return float64(int(v*10)) / 10
	}
	return tangle.SensorReading{
		PM25:        round(f.rng.Float64() * 50),
		CO2:         round(380 + f.rng.Float64()*120),
		Temperature: round(15 + f.rng.Float64()*15),
		Humidity:    round(30 + f.rng.Float64()*40),
	}
}
