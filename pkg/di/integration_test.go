package di

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-autocache/autocache"
	"github.com/goliatone/go-autocache/cache"
	"github.com/goliatone/go-autocache/pkg/testsupport"
)

// Statement represents a test record returned by the fake bank API.
type Statement struct {
	Account string    `msgpack:"account"`
	Month   string    `msgpack:"month"`
	Amounts []int64   `msgpack:"amounts"`
	Fetched time.Time `msgpack:"fetched"`
}

// fakeBank is an upstream whose calls are counted to verify caching behavior.
type fakeBank struct {
	mu        sync.Mutex
	callCount map[string]int
	fail      map[string]error
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		callCount: make(map[string]int),
		fail:      make(map[string]error),
	}
}

func (b *fakeBank) statements(ctx context.Context, args cache.Arguments) ([]Statement, error) {
	account := cache.ArgValue[string](args, "account")
	month := cache.ArgValue[time.Time](args, "month")

	b.mu.Lock()
	b.callCount[account]++
	err := b.fail[account]
	b.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return []Statement{{
		Account: account,
		Month:   month.Format("2006-01"),
		Amounts: []int64{100, -25, 3},
		Fetched: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}}, nil
}

func (b *fakeBank) compute() autocache.ComputeFunc[[]Statement] {
	return b.statements
}

func (b *fakeBank) calls(account string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callCount[account]
}

func squareFunc(calls *testsupport.Counter) autocache.ComputeFunc[int] {
	return func(ctx context.Context, args cache.Arguments) (int, error) {
		calls.Inc()
		n := cache.ArgValue[int](args, "n")
		return n * n, nil
	}
}

func newTestContainer(t testing.TB, settings Settings) *Container {
	t.Helper()

	container, err := NewContainerWithOutput(settings, io.Discard)
	if err != nil {
		t.Fatalf("NewContainer() failed: %v", err)
	}
	return container
}

var statementSignature = cache.NewSignature(
	cache.Arg("account"),
	cache.Arg("month"),
).Named("banks/fake", "statements")

func TestEndToEndCachedFunctionFlow(t *testing.T) {
	ctx := context.Background()
	root := testsupport.CacheRoot(t)
	container := newTestContainer(t, Settings{Root: root, CompressionLevel: -1, LogLevel: "info"})
	bank := newFakeBank()

	statements, err := NewCachedFunc(container, statementSignature, bank.compute(),
		cache.WithMemory(true),
		cache.WithFilepattern("{account}/{month:%Y-%m}"),
	)
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}

	jan := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	// First call computes and persists.
	first, err := statements.Call(ctx, "acc-1", jan)
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if len(first) != 1 || first[0].Month != "2024-01" {
		t.Fatalf("unexpected result: %+v", first)
	}

	// Keyword form of the same call hits memory.
	second, err := statements.Call(ctx, "acc-1", cache.Kw("month", jan))
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if !second[0].Fetched.Equal(first[0].Fetched) {
		t.Errorf("cached value differs: %+v vs %+v", second, first)
	}

	// Same month, different day, shares the monthly entry.
	if _, err := statements.Call(ctx, "acc-1", jan.AddDate(0, 0, -10)); err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if bank.calls("acc-1") != 1 {
		t.Errorf("upstream called %d times, want 1", bank.calls("acc-1"))
	}

	if _, err := statements.Call(ctx, "acc-1", feb); err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if bank.calls("acc-1") != 2 {
		t.Errorf("upstream called %d times, want 2", bank.calls("acc-1"))
	}

	want := []string{
		"banks/fake/statements/acc-1/2024-01",
		"banks/fake/statements/acc-1/2024-02",
	}
	got := testsupport.ListBlobs(t, root)
	sort.Strings(got)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("blobs = %v, want %v", got, want)
	}

	// A new container over the same root reads the blobs written above.
	restarted := newTestContainer(t, Settings{Root: root, CompressionLevel: -1, LogLevel: "info"})
	again, err := NewCachedFunc(restarted, statementSignature, bank.compute(),
		cache.WithFilepattern("{account}/{month:%Y-%m}"),
	)
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}
	fromDisk, err := again.Call(ctx, "acc-1", feb)
	if err != nil {
		t.Fatalf("Call() failed: %v", err)
	}
	if fromDisk[0].Month != "2024-02" || len(fromDisk[0].Amounts) != 3 {
		t.Errorf("unexpected value read from disk: %+v", fromDisk)
	}
	if bank.calls("acc-1") != 2 {
		t.Errorf("upstream called %d times after restart, want 2", bank.calls("acc-1"))
	}
}

func TestContainerInvalidateAllFlow(t *testing.T) {
	ctx := context.Background()
	root := testsupport.CacheRoot(t)
	container := newTestContainer(t, Settings{Root: root, CompressionLevel: -1, LogLevel: "info"})
	bank := newFakeBank()

	var squares testsupport.Counter
	square, err := NewCachedFunc(container, cache.NewSignature(cache.Arg("n")).Named("math", "square"), squareFunc(&squares), cache.WithMemory(true))
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}
	statements, err := NewCachedFunc(container, statementSignature, bank.compute())
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}

	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	square.Call(ctx, 3)
	statements.Call(ctx, "acc-2", month)

	if got := len(testsupport.ListBlobs(t, root)); got != 2 {
		t.Fatalf("blobs = %d, want 2", got)
	}

	if err := container.InvalidateAll(ctx); err != nil {
		t.Fatalf("InvalidateAll() failed: %v", err)
	}
	if blobs := testsupport.ListBlobs(t, root); len(blobs) != 0 {
		t.Errorf("blobs after InvalidateAll = %v", blobs)
	}

	square.Call(ctx, 3)
	statements.Call(ctx, "acc-2", month)
	if squares.Count() != 2 || bank.calls("acc-2") != 2 {
		t.Errorf("calls after InvalidateAll = %d, %d, want 2, 2", squares.Count(), bank.calls("acc-2"))
	}
}

func TestTimedExpiryIntegration(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t, Settings{Root: testsupport.CacheRoot(t), CompressionLevel: -1, LogLevel: "info"})
	clock := testsupport.NewClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var calls testsupport.Counter
	square, err := NewCachedFunc(container, cache.NewSignature(cache.Arg("n")).Named("math", "square"), squareFunc(&calls),
		cache.WithDisk(false),
		cache.WithDuration(30*time.Second),
		cache.WithClock(clock.Now),
	)
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}

	square.Call(ctx, 5)
	clock.Advance(29 * time.Second)
	square.Call(ctx, 5)
	if calls.Count() != 1 {
		t.Errorf("calls within window = %d, want 1", calls.Count())
	}

	clock.Advance(time.Second)
	square.Call(ctx, 5)
	if calls.Count() != 2 {
		t.Errorf("calls after expiry = %d, want 2", calls.Count())
	}
}

func TestErrorPropagation(t *testing.T) {
	ctx := context.Background()
	root := testsupport.CacheRoot(t)
	container := newTestContainer(t, Settings{Root: root, CompressionLevel: -1, LogLevel: "info"})
	bank := newFakeBank()
	upstream := errors.New("bank unavailable")
	bank.fail["acc-3"] = upstream

	statements, err := NewCachedFunc(container, statementSignature, bank.compute(), cache.WithMemory(true))
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}

	month := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if _, err := statements.Call(ctx, "acc-3", month); !errors.Is(err, upstream) {
			t.Fatalf("Call() error = %v, want %v", err, upstream)
		}
	}
	if bank.calls("acc-3") != 2 {
		t.Errorf("failed calls should not be cached, upstream called %d times", bank.calls("acc-3"))
	}
	if blobs := testsupport.ListBlobs(t, root); len(blobs) != 0 {
		t.Errorf("failed call wrote blobs: %v", blobs)
	}

	if _, err := statements.Call(ctx, "acc-3"); !errors.Is(err, cache.ErrBinding) {
		t.Errorf("Call() error = %v, want binding error", err)
	}
}

func TestDifferentResultTypes(t *testing.T) {
	ctx := context.Background()
	container := newTestContainer(t, Settings{Root: testsupport.CacheRoot(t), CompressionLevel: -1, LogLevel: "info"})

	sig := cache.NewSignature(cache.Arg("key")).Named("types", "lookup")

	names, err := NewCachedFunc(container, sig.Named("types", "names"), autocache.ComputeFunc[map[string][]string](func(ctx context.Context, args cache.Arguments) (map[string][]string, error) {
		return map[string][]string{"k": {args.Value("key").(string)}}, nil
	}))
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}
	flag, err := NewCachedFunc(container, sig.Named("types", "flag"), autocache.ComputeFunc[bool](func(ctx context.Context, args cache.Arguments) (bool, error) {
		return args.Value("key") == "on", nil
	}))
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}
	ptr, err := NewCachedFunc(container, sig.Named("types", "ptr"), autocache.ComputeFunc[*Statement](func(ctx context.Context, args cache.Arguments) (*Statement, error) {
		return &Statement{Account: args.Value("key").(string)}, nil
	}))
	if err != nil {
		t.Fatalf("NewCachedFunc() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		m, err := names.Call(ctx, "a")
		if err != nil || len(m["k"]) != 1 || m["k"][0] != "a" {
			t.Errorf("names.Call() = %v, %v", m, err)
		}
		b, err := flag.Call(ctx, "on")
		if err != nil || !b {
			t.Errorf("flag.Call() = %v, %v", b, err)
		}
		p, err := ptr.Call(ctx, "x")
		if err != nil || p == nil || p.Account != "x" {
			t.Errorf("ptr.Call() = %+v, %v", p, err)
		}
	}

	if container.Len() != 3 {
		t.Errorf("Len() = %d, want 3", container.Len())
	}
}
