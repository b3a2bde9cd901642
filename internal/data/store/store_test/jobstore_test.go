package store_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/mvembar/SyllabusAPI/internal/config"
	"github.com/mvembar/SyllabusAPI/internal/data/redisStore"
	"github.com/mvembar/SyllabusAPI/internal/data/store"
	"github.com/mvembar/SyllabusAPI/internal/domain/jobModel"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *redisStore.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return redisStore.NewTestStore(client)
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	jobStore := store.TestJobStore(newTestStore(t))

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeQuery,
		Status:  jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			Question: "when are office hours?",
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrieved, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("job was saved but not found in Redis")
		}
		if retrieved.JobPayload.Question != testJob.JobPayload.Question {
			t.Errorf("Question got %s, want %s", retrieved.JobPayload.Question, testJob.JobPayload.Question)
		}
		if retrieved.JobType != jobModel.JobTypeQuery {
			t.Errorf("JobType got %s", retrieved.JobType)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-job"); found {
			t.Error("found a job that was never saved")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		jobStore.DeleteJob(ctx, jobID)
		if _, found := jobStore.GetJob(ctx, jobID); found {
			t.Error("job still present after delete")
		}
	})
}

func TestRedisJobStore_IngestResultRoundtrip(t *testing.T) {
	jobStore := store.TestJobStore(newTestStore(t))
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")

	job := jobModel.Job{
		Id:      "ingest_job_1",
		JobType: jobModel.JobTypeIngest,
		Status:  jobModel.JobStatusComplete,
		JobPayload: jobModel.JobPayload{
			IngestFileName: "cs101.pdf",
		},
	}
	if err := jobStore.SaveJob(ctx, job); err != nil {
		t.Fatalf("SaveJob failed: %v", err)
	}

	retrieved, found := jobStore.GetJob(ctx, "ingest_job_1")
	if !found {
		t.Fatal("ingest job not found")
	}
	if retrieved.JobPayload.IngestFileName != "cs101.pdf" {
		t.Errorf("IngestFileName got %q", retrieved.JobPayload.IngestFileName)
	}
}

func TestRedisMessageStore_History(t *testing.T) {
	msgStore := store.TestMessageStore(newTestStore(t))
	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
	chatID := "chat-1"

	t.Run("unknown chat fails validation", func(t *testing.T) {
		if msgStore.ValidateChatId(ctx, chatID) {
			t.Error("unknown chat id validated")
		}
		if err := msgStore.TrySaveChat(ctx, chatID, jobModel.JobPayload{Question: "q"}); err == nil {
			t.Error("saving to an unknown chat must fail")
		}
	})

	t.Run("init then save then read back", func(t *testing.T) {
		if err := msgStore.InitNewChat(ctx, chatID); err != nil {
			t.Fatalf("InitNewChat failed: %v", err)
		}
		if !msgStore.ValidateChatId(ctx, chatID) {
			t.Fatal("chat id should validate after init")
		}

		for i := 0; i < 7; i++ {
			payload := jobModel.JobPayload{
				Question: "question " + string(rune('a'+i)),
				Answer:   "answer " + string(rune('a'+i)),
			}
			if err := msgStore.TrySaveChat(ctx, chatID, payload); err != nil {
				t.Fatalf("TrySaveChat failed: %v", err)
			}
		}

		history, err := msgStore.GetMessageHistory(ctx, chatID)
		if err != nil {
			t.Fatalf("GetMessageHistory failed: %v", err)
		}
		if len(history) != 5 {
			t.Fatalf("history capped at 5 recent turns, got %d", len(history))
		}
		// oldest of the window first
		if history[0] != "Question: question c\nAnswer: answer c" {
			t.Errorf("history[0] got %q", history[0])
		}
		if history[4] != "Question: question g\nAnswer: answer g" {
			t.Errorf("history[4] got %q", history[4])
		}
	})
}

func TestInMemoryStores(t *testing.T) {
	ctx := context.Background()

	t.Run("job store roundtrip", func(t *testing.T) {
		js := store.InitInMemoryJobStore()
		job := jobModel.Job{Id: "j1", Status: jobModel.JobStatusQueued}
		if err := js.SaveJob(ctx, job); err != nil {
			t.Fatal(err)
		}
		got, found := js.GetJob(ctx, "j1")
		if !found || got.Status != jobModel.JobStatusQueued {
			t.Errorf("got %+v found=%v", got, found)
		}
		js.DeleteJob(ctx, "j1")
		if _, found = js.GetJob(ctx, "j1"); found {
			t.Error("job survived delete")
		}
	})

	t.Run("message store history window", func(t *testing.T) {
		ms := store.InitMessageStore()
		if ms.ValidateChatId(ctx, "c1") {
			t.Error("unknown chat validated")
		}
		if err := ms.InitNewChat(ctx, "c1"); err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 6; i++ {
			ms.TrySaveChat(ctx, "c1", jobModel.JobPayload{Question: "q", Answer: "a"})
		}
		history, err := ms.GetMessageHistory(ctx, "c1")
		if err != nil {
			t.Fatal(err)
		}
		if len(history) != 5 {
			t.Errorf("history got %d entries, want 5", len(history))
		}
	})
}

func TestFileRegistry(t *testing.T) {
	r := store.NewFileRegistry()

	r.Register(store.FileRecord{FileID: "f1", DocumentID: "d1", Filename: "a.pdf"})
	r.Register(store.FileRecord{FileID: "f2", DocumentID: "d2", Filename: "b.pdf"})

	if r.Len() != 2 {
		t.Fatalf("Len got %d", r.Len())
	}
	rec, ok := r.Get("f1")
	if !ok || rec.Filename != "a.pdf" {
		t.Errorf("Get(f1) got %+v ok=%v", rec, ok)
	}
	if !r.Remove("f1") {
		t.Error("Remove(f1) should succeed")
	}
	if r.Remove("f1") {
		t.Error("second Remove(f1) should report missing")
	}
	if got := r.List(); len(got) != 1 || got[0].FileID != "f2" {
		t.Errorf("List got %+v", got)
	}
}
