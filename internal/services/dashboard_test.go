package services

import (
	"testing"
	"time"

	"github.com/proofpay/backend/internal/models"
)

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	other := createTestUser(t, db, "other@x.com", "freelancer")
	admin := createTestUser(t, db, "a@x.com", "admin")

	p1 := createTestProject(t, db, owner.ID, models.StatusPaid)
	createTestProject(t, db, owner.ID, models.StatusDraft)
	p3 := createTestProject(t, db, other.ID, models.StatusCompleted)

	now := time.Now()
	payments := []models.Payment{
		{ProjectID: p1.ID, PaymentID: "pay-1", ClientEmail: "c@x.com", AmountCents: 100000, CommissionCents: 5000, Status: models.PaymentCompleted, CompletedAt: &now},
		{ProjectID: p1.ID, PaymentID: "pay-2", ClientEmail: "c@x.com", AmountCents: 100000, CommissionCents: 5000, Status: models.PaymentFailed},
		{ProjectID: p3.ID, PaymentID: "pay-3", ClientEmail: "c@x.com", AmountCents: 50000, CommissionCents: 2500, Status: models.PaymentCompleted, CompletedAt: &now},
	}
	for i := range payments {
		if err := db.Create(&payments[i]).Error; err != nil {
			t.Fatalf("create payment: %v", err)
		}
	}

	createTestDownload(t, db, p1.ID, 2, 3, now.Add(time.Hour))
	createTestDownload(t, db, p3.ID, 1, 3, now.Add(time.Hour))

	stats, err := svc.Stats(FreelancerActor(owner.ID, owner.Email))
	if err != nil {
		t.Fatalf("owner stats: %v", err)
	}
	if stats.TotalProjects != 2 {
		t.Errorf("owner should count 2 projects, got %d", stats.TotalProjects)
	}
	if stats.ProjectsByStatus["paid"] != 1 || stats.ProjectsByStatus["draft"] != 1 {
		t.Errorf("unexpected status counts %v", stats.ProjectsByStatus)
	}
	// Failed payments never count toward revenue.
	if stats.Revenue != "1000.00" {
		t.Errorf("expected revenue 1000.00, got %s", stats.Revenue)
	}
	if stats.Commission != "50.00" {
		t.Errorf("expected commission 50.00, got %s", stats.Commission)
	}
	if stats.DownloadsServed != 2 {
		t.Errorf("expected 2 downloads served, got %d", stats.DownloadsServed)
	}

	stats, err = svc.Stats(AdminActor(admin.ID, admin.Email))
	if err != nil {
		t.Fatalf("admin stats: %v", err)
	}
	if stats.TotalProjects != 3 {
		t.Errorf("admin should count 3 projects, got %d", stats.TotalProjects)
	}
	if stats.Revenue != "1500.00" {
		t.Errorf("expected revenue 1500.00, got %s", stats.Revenue)
	}
	if stats.DownloadsServed != 3 {
		t.Errorf("expected 3 downloads served, got %d", stats.DownloadsServed)
	}
}

func TestDashboardStatsEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := NewDashboardService(db)

	owner := createTestUser(t, db, "f@x.com", "freelancer")
	stats, err := svc.Stats(FreelancerActor(owner.ID, owner.Email))
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalProjects != 0 || stats.DownloadsServed != 0 {
		t.Errorf("expected zero counters, got %+v", stats)
	}
	if stats.Revenue != "0.00" {
		t.Errorf("expected revenue 0.00, got %s", stats.Revenue)
	}
}
