package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/proofpay/backend/internal/models"
)

// captureQueue records enqueued tasks for assertions.
type captureQueue struct {
	mu    sync.Mutex
	tasks []*NotifyTask
}

func (q *captureQueue) Enqueue(task *NotifyTask) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return nil
}

func (q *captureQueue) IsAsync() bool { return false }
func (q *captureQueue) Close() error  { return nil }

func (q *captureQueue) all() []*NotifyTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*NotifyTask(nil), q.tasks...)
}

func TestProjectEventRecipients(t *testing.T) {
	db := newTestDB(t)
	queue := &captureQueue{}
	svc := NewNotificationService(db, queue)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPreviewShared)

	svc.ProjectEvent(NotifyPreviewShared, project, nil)
	svc.ProjectEvent(NotifyApproved, project, nil)
	svc.ProjectEvent(NotifyRevisionRequested, project, map[string]string{"feedback": "fix it"})
	svc.ProjectEvent(NotifyPaymentConfirmed, project, map[string]string{"download_token": "tok"})
	svc.ProjectEvent(NotifyNone, project, nil)

	tasks := queue.all()
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d", len(tasks))
	}

	want := map[NotifyKind]string{
		NotifyPreviewShared:     "c@x.com", // client-facing
		NotifyPaymentConfirmed:  "c@x.com",
		NotifyApproved:          "f@x.com", // freelancer-facing
		NotifyRevisionRequested: "f@x.com",
	}
	for _, task := range tasks {
		if got := want[task.Kind]; task.RecipientEmail != got {
			t.Errorf("%s: expected recipient %s, got %s", task.Kind, got, task.RecipientEmail)
		}
		if task.ProjectID != project.ID {
			t.Errorf("%s: wrong project id %d", task.Kind, task.ProjectID)
		}
	}
}

func TestLifecycleNotifiesAfterCommit(t *testing.T) {
	db := newTestDB(t)
	queue := &captureQueue{}
	notifier := NewNotificationService(db, queue)
	svc := NewLifecycleService(db, notifier)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPreviewShared)

	// A rejected transition must not notify.
	if _, err := svc.SharePreview(project.ID, FreelancerActor(owner.ID, owner.Email)); err == nil {
		t.Fatal("expected invalid transition")
	}
	if got := queue.all(); len(got) != 0 {
		t.Fatalf("rejected transition enqueued %d tasks", len(got))
	}

	if _, err := svc.Approve(project.ID, ClientActor("c@x.com")); err != nil {
		t.Fatalf("approve: %v", err)
	}

	tasks := queue.all()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	if tasks[0].Kind != NotifyApproved {
		t.Errorf("expected approved notification, got %s", tasks[0].Kind)
	}
}

func TestSyncQueueDeliversOffTheCallerPath(t *testing.T) {
	queue := NewSyncQueue()

	done := make(chan *NotifyTask, 1)
	queue.SetProcessor(func(_ context.Context, task *NotifyTask) error {
		done <- task
		return nil
	})

	task := &NotifyTask{Kind: NotifyApproved, ProjectID: 7, RecipientEmail: "f@x.com"}
	if err := queue.Enqueue(task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case got := <-done:
		if got.ProjectID != 7 {
			t.Errorf("unexpected task %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("processor was never invoked")
	}
}

func TestSyncQueueWithoutProcessorDropsTask(t *testing.T) {
	queue := NewSyncQueue()
	if err := queue.Enqueue(&NotifyTask{Kind: NotifyApproved, ProjectID: 1}); err != nil {
		t.Fatalf("enqueue without processor should not error: %v", err)
	}
}
