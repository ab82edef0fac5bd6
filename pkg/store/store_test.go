package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackends(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"Memory": func(t *testing.T) Store { return NewMemory() },
		"File": func(t *testing.T) Store {
			s, err := NewFile(t.TempDir())
			if err != nil {
				t.Fatalf("NewFile: %v", err)
			}
			return s
		},
		"Scoped": func(t *testing.T) Store { return NewScoped(NewMemory(), "tenant:") },
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			if _, hit, err := s.Get(ctx, "missing"); err != nil || hit {
				t.Fatalf("Get(missing) = hit %v, err %v", hit, err)
			}

			if err := s.Set(ctx, "k", []byte("v1"), 0); err != nil {
				t.Fatalf("Set: %v", err)
			}
			data, hit, err := s.Get(ctx, "k")
			if err != nil || !hit || string(data) != "v1" {
				t.Fatalf("Get = %q, %v, %v", data, hit, err)
			}

			if err := s.Set(ctx, "k", []byte("v2"), time.Hour); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			data, _, _ = s.Get(ctx, "k")
			if string(data) != "v2" {
				t.Errorf("after overwrite Get = %q", data)
			}

			if err := s.Delete(ctx, "k"); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			if _, hit, _ := s.Get(ctx, "k"); hit {
				t.Error("hit after Delete")
			}
			if err := s.Delete(ctx, "k"); err != nil {
				t.Errorf("Delete(missing): %v", err)
			}
		})
	}
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	_ = s.Set(ctx, "k", []byte("v"), time.Minute)
	if _, hit, _ := s.Get(ctx, "k"); !hit {
		t.Fatal("miss before expiry")
	}
	now = now.Add(2 * time.Minute)
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Error("hit after expiry")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry kept, Len = %d", s.Len())
	}
}

func TestMemoryCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	buf := []byte("abc")
	_ = s.Set(ctx, "k", buf, 0)
	buf[0] = 'x'
	got, _, _ := s.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("stored value aliased caller buffer: %q", got)
	}
}

func TestMemoryClosed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	s.Close()
	if _, _, err := s.Get(ctx, "k"); !errors.Is(err, ErrClosed) {
		t.Errorf("Get err = %v, want ErrClosed", err)
	}
	if err := s.Set(ctx, "k", nil, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("Set err = %v, want ErrClosed", err)
	}
}

func TestFileExpiry(t *testing.T) {
	ctx := context.Background()
	s, _ := NewFile(t.TempDir())
	_ = s.Set(ctx, "k", []byte("v"), time.Nanosecond)
	time.Sleep(time.Millisecond)
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Error("hit after expiry")
	}
}

func TestScopedIsolation(t *testing.T) {
	ctx := context.Background()
	inner := NewMemory()
	a := NewScoped(inner, "a:")
	b := NewScoped(inner, "b:")

	_ = a.Set(ctx, "k", []byte("from a"), 0)
	if _, hit, _ := b.Get(ctx, "k"); hit {
		t.Error("scopes leaked")
	}
	if data, hit, _ := inner.Get(ctx, "a:k"); !hit || string(data) != "from a" {
		t.Errorf("inner key = %q, %v", data, hit)
	}
}

func TestNull(t *testing.T) {
	ctx := context.Background()
	s := NewNull()
	defer s.Close()

	if err := s.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	if _, hit, _ := s.Get(ctx, "k"); hit {
		t.Error("Null should not store data")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestKeys(t *testing.T) {
	if got := LayoutKey("fruchterman-reingold", "main"); got != "layout_fruchterman-reingold_main" {
		t.Errorf("LayoutKey = %q", got)
	}
	if got := GraphKey("abc"); got != "graph:abc" {
		t.Errorf("GraphKey = %q", got)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{name: "Default", opts: Options{}},
		{name: "Memory", opts: Options{Backend: BackendMemory}},
		{name: "File", opts: Options{Backend: BackendFile, Dir: t.TempDir()}},
		{name: "None", opts: Options{Backend: BackendNone}},
		{name: "Prefixed", opts: Options{Prefix: "x:"}},
		{name: "Unknown", opts: Options{Backend: "etcd"}, wantErr: ErrUnknownBackend},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(ctx, tt.opts)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer s.Close()
			if tt.opts.Prefix != "" {
				if _, ok := s.(*Scoped); !ok {
					t.Errorf("store = %T, want *Scoped", s)
				}
			}
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("SucceedsAfterRetries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			if calls < 3 {
				return Retryable(boom)
			}
			return nil
		})
		if err != nil || calls != 3 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("PermanentError", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, func() error {
			calls++
			return boom
		})
		if !errors.Is(err, boom) || calls != 1 {
			t.Errorf("err = %v, calls = %d", err, calls)
		}
	})

	t.Run("ExhaustedUnwraps", func(t *testing.T) {
		err := RetryWithBackoff(ctx, func() error { return Retryable(boom) })
		if err != boom {
			t.Errorf("err = %v, want unwrapped boom", err)
		}
		if IsRetryable(err) {
			t.Error("exhausted error still marked retryable")
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := RetryWithBackoff(cctx, func() error { return Retryable(boom) })
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want canceled", err)
		}
	})
}

// Redis and Mongo need live servers; only their contracts are asserted here.
var (
	_ Store = (*Redis)(nil)
	_ Store = (*Mongo)(nil)
)
