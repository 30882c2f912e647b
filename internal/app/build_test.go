package app

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/config"
	"github.com/23f1002431/23f1002431-TDS-project1/internal/store"
)

func TestBuildWithMockBuilder(t *testing.T) {
	cfg, err := config.LoadBytes([]byte(`
server:
  addr: 127.0.0.1:0
  secret: s3cret
builder:
  type: mock
github:
  token: ghp_test
storage:
  disable: true
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	srv, err := Build(cfg, nil, slog.Default())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if srv == nil {
		t.Fatal("nil server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	// let it start then cancel
	time.Sleep(20 * time.Millisecond)
	cancel()

	if err := <-errCh; err != nil && err != context.Canceled {
		t.Fatalf("server err: %v", err)
	}
}

func TestBuildWithJournal(t *testing.T) {
	cfg, err := config.LoadBytes([]byte(`
server:
  secret: s3cret
builder:
  type: static
github:
  token: ghp_test
`))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Storage.Path = t.TempDir() + "/journal.db"

	st, err := store.New(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	if _, err := Build(cfg, st, slog.Default()); err != nil {
		t.Fatalf("build: %v", err)
	}
}
