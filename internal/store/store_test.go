package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/23f1002431/23f1002431-TDS-project1/internal/core"
)

func newTempStore(t *testing.T) *Store {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func record(id string, at time.Time) core.TaskRecord {
	return core.TaskRecord{
		ID:        id,
		Round:     1,
		Task:      "quiz-app",
		Nonce:     "n-" + id,
		Status:    core.StatusReceived,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func TestRecordTaskUpserts(t *testing.T) {
	st := newTempStore(t)
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rec := record("t1", at)
	if err := st.RecordTask(rec); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.Status = core.StatusDone
	rec.UpdatedAt = at.Add(5 * time.Second)
	if err := st.RecordTask(rec); err != nil {
		t.Fatalf("update: %v", err)
	}

	tasks, err := st.ListTasks(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(tasks))
	}
	if tasks[0].Status != core.StatusDone {
		t.Fatalf("status = %s", tasks[0].Status)
	}
}

func TestListTasksNewestFirst(t *testing.T) {
	st := newTempStore(t)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if err := st.RecordTask(record(fmt.Sprintf("t%d", i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}

	tasks, err := st.ListTasks(3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3, got %d", len(tasks))
	}
	if tasks[0].ID != "t4" || tasks[2].ID != "t2" {
		t.Fatalf("order wrong: %s %s %s", tasks[0].ID, tasks[1].ID, tasks[2].ID)
	}
}

func TestRecordTaskRequiresID(t *testing.T) {
	st := newTempStore(t)
	if err := st.RecordTask(core.TaskRecord{}); err == nil {
		t.Fatalf("expected error for empty id")
	}
}

func TestSeenNonce(t *testing.T) {
	st := newTempStore(t)

	seen, err := st.SeenNonce("quiz-app", "ab12")
	if err != nil || seen {
		t.Fatalf("first sighting unexpected: %v %v", seen, err)
	}
	seen, err = st.SeenNonce("quiz-app", "ab12")
	if err != nil || !seen {
		t.Fatalf("second sighting should be seen: %v %v", seen, err)
	}
	// same nonce under another task is distinct
	seen, err = st.SeenNonce("other-task", "ab12")
	if err != nil || seen {
		t.Fatalf("different task should not collide: %v %v", seen, err)
	}
	if _, err := st.SeenNonce("quiz-app", ""); err == nil {
		t.Fatalf("empty nonce should error")
	}
}

func TestAppendCallbackTrims(t *testing.T) {
	st := newTempStore(t)
	oldMax := callbackMaxEntries
	callbackMaxEntries = 2
	defer func() { callbackMaxEntries = oldMax }()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		err := st.AppendCallback(core.CallbackRecord{
			TaskID:    fmt.Sprintf("t%d", i),
			URL:       "https://eval.example.com",
			Round:     1,
			Attempts:  1,
			Delivered: true,
			At:        base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	recs, err := st.ListCallbacks(10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 after trim, got %d", len(recs))
	}
	if recs[0].TaskID != "t3" || recs[1].TaskID != "t2" {
		t.Fatalf("order wrong: %s %s", recs[0].TaskID, recs[1].TaskID)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")

	st, err := New(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := st.RecordTask(record("t1", time.Now().UTC())); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := st.SeenNonce("quiz-app", "ab12"); err != nil {
		t.Fatalf("nonce: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()

	tasks, err := st2.ListTasks(10)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("tasks lost: %v %d", err, len(tasks))
	}
	seen, err := st2.SeenNonce("quiz-app", "ab12")
	if err != nil || !seen {
		t.Fatalf("nonce lost across reopen: %v %v", seen, err)
	}
}
