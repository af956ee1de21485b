package services

import (
	"sync"
	"testing"
	"time"

	"github.com/proofpay/backend/internal/models"
)

func newDownloadFixture(t *testing.T) (*DownloadService, *models.Project) {
	t.Helper()
	db := newTestDB(t)
	svc := NewDownloadService(db, 3, 7)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPaid)
	setProjectFields(t, db, project.ID, map[string]interface{}{
		"final_file_url": "https://files.example/final.zip",
	})
	return svc, reloadProject(t, db, project.ID)
}

func TestIssueTokenDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, 3, 7)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPaid)

	before := time.Now()
	download, err := svc.IssueToken(project, "c@x.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if download.Token == "" {
		t.Error("token must not be empty")
	}
	if len(download.Token) != 64 { // 32 random bytes hex encoded
		t.Errorf("expected 64-char token, got %d chars", len(download.Token))
	}
	if download.DownloadCount != 0 {
		t.Errorf("fresh token count should be 0, got %d", download.DownloadCount)
	}
	if download.MaxDownloads != 3 {
		t.Errorf("expected max 3 downloads, got %d", download.MaxDownloads)
	}

	wantExpiry := before.Add(7 * 24 * time.Hour)
	diff := download.ExpiresAt.Sub(wantExpiry)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected expiry about 7 days out, got %v", download.ExpiresAt)
	}
}

func TestIssueTokenRejectsWrongClient(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, 3, 7)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPaid)

	_, err := svc.IssueToken(project, "stranger@x.com")
	expectKind(t, err, KindForbidden)

	_, err = svc.IssueToken(project, "")
	expectKind(t, err, KindForbidden)
}

func TestResolveTokenConsumesOneDownload(t *testing.T) {
	svc, project := newDownloadFixture(t)

	download, err := svc.IssueToken(project, "c@x.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	res, err := svc.ResolveToken(download.Token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	if res.FileURL != "https://files.example/final.zip" {
		t.Errorf("unexpected file url %q", res.FileURL)
	}
	if res.Remaining != 2 {
		t.Errorf("expected 2 remaining, got %d", res.Remaining)
	}
}

func TestResolveTokenLimitExceeded(t *testing.T) {
	svc, project := newDownloadFixture(t)

	download, err := svc.IssueToken(project, "c@x.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.ResolveToken(download.Token); err != nil {
			t.Fatalf("resolve %d: %v", i+1, err)
		}
	}

	_, err = svc.ResolveToken(download.Token)
	expectKind(t, err, KindLimitExceeded)
}

func TestResolveTokenExpired(t *testing.T) {
	svc, project := newDownloadFixture(t)

	db := svc.db
	download := createTestDownload(t, db, project.ID, 0, 3, time.Now().Add(-time.Hour))

	_, err := svc.ResolveToken(download.Token)
	expectKind(t, err, KindExpired)

	// A failed resolution never consumes a download.
	var got models.Download
	if err := db.First(&got, download.ID).Error; err != nil {
		t.Fatalf("reload download: %v", err)
	}
	if got.DownloadCount != 0 {
		t.Errorf("expired resolution must not increment count, got %d", got.DownloadCount)
	}
}

func TestResolveTokenExpiryCheckedBeforeLimit(t *testing.T) {
	svc, project := newDownloadFixture(t)

	// Token is both expired and exhausted; expiry wins.
	download := createTestDownload(t, svc.db, project.ID, 3, 3, time.Now().Add(-time.Hour))

	_, err := svc.ResolveToken(download.Token)
	expectKind(t, err, KindExpired)
}

func TestResolveTokenUnknown(t *testing.T) {
	svc, _ := newDownloadFixture(t)

	_, err := svc.ResolveToken("no-such-token")
	expectKind(t, err, KindNotFound)

	_, err = svc.ResolveToken("")
	expectKind(t, err, KindNotFound)
}

func TestResolveTokenChecksLiveProjectState(t *testing.T) {
	svc, project := newDownloadFixture(t)

	download, err := svc.IssueToken(project, "c@x.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	// Move the project away from paid (refund or admin correction). The
	// still-fresh token must stop resolving.
	setProjectFields(t, svc.db, project.ID, map[string]interface{}{"status": models.StatusApproved})

	_, err = svc.ResolveToken(download.Token)
	expectKind(t, err, KindPreconditionFailed)
	if StatusOf(err) != models.StatusApproved {
		t.Errorf("error should carry live status approved, got %s", StatusOf(err))
	}

	var got models.Download
	if err := svc.db.First(&got, download.ID).Error; err != nil {
		t.Fatalf("reload download: %v", err)
	}
	if got.DownloadCount != 0 {
		t.Errorf("blocked resolution must not increment count, got %d", got.DownloadCount)
	}

	// Restoring the project restores the token.
	setProjectFields(t, svc.db, project.ID, map[string]interface{}{"status": models.StatusCompleted})
	if _, err := svc.ResolveToken(download.Token); err != nil {
		t.Fatalf("resolve after restore: %v", err)
	}
}

func TestResolveTokenRequiresFinalFile(t *testing.T) {
	db := newTestDB(t)
	svc := NewDownloadService(db, 3, 7)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	project := createTestProject(t, db, owner.ID, models.StatusPaid)
	download := createTestDownload(t, db, project.ID, 0, 3, time.Now().Add(time.Hour))

	_, err := svc.ResolveToken(download.Token)
	expectKind(t, err, KindPreconditionFailed)
}

func TestResolveTokenConcurrentLastDownload(t *testing.T) {
	svc, project := newDownloadFixture(t)

	// One download left; two concurrent resolutions must not both win.
	download := createTestDownload(t, svc.db, project.ID, 2, 3, time.Now().Add(time.Hour))

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ResolveToken(download.Token)
		}(i)
	}
	wg.Wait()

	var wins, limited int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case IsKind(err, KindLimitExceeded):
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || limited != 1 {
		t.Errorf("expected exactly one winner, got %d wins and %d limit rejections", wins, limited)
	}

	var got models.Download
	if err := svc.db.First(&got, download.ID).Error; err != nil {
		t.Fatalf("reload download: %v", err)
	}
	if got.DownloadCount != 3 {
		t.Errorf("count should be exactly 3, got %d", got.DownloadCount)
	}
}

func TestListDownloadsByProjectAuthorization(t *testing.T) {
	svc, project := newDownloadFixture(t)

	if _, err := svc.IssueToken(project, "c@x.com"); err != nil {
		t.Fatalf("issue token: %v", err)
	}

	owner := FreelancerActor(project.FreelancerID, "f@x.com")
	downloads, err := svc.ListByProject(project.ID, owner)
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(downloads) != 1 {
		t.Errorf("expected 1 download, got %d", len(downloads))
	}

	_, err = svc.ListByProject(project.ID, ClientActor("c@x.com"))
	expectKind(t, err, KindForbidden)
}

func TestCleanupExpiredKeepsRecentTokens(t *testing.T) {
	svc, project := newDownloadFixture(t)

	createTestDownload(t, svc.db, project.ID, 0, 3, time.Now().AddDate(0, 0, -60))
	recent := createTestDownload(t, svc.db, project.ID, 0, 3, time.Now().AddDate(0, 0, -1))
	live := createTestDownload(t, svc.db, project.ID, 0, 3, time.Now().Add(time.Hour))

	deleted, err := svc.CleanupExpired(30)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted token, got %d", deleted)
	}

	var remaining []models.Download
	if err := svc.db.Find(&remaining).Error; err != nil {
		t.Fatalf("list remaining: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 surviving tokens, got %d", len(remaining))
	}
	for _, d := range remaining {
		if d.ID != recent.ID && d.ID != live.ID {
			t.Errorf("unexpected survivor %d", d.ID)
		}
	}
}
