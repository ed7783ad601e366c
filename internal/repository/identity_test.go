package repository

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hiveflow/hiveflow/internal/config"
	"github.com/hiveflow/hiveflow/internal/domain"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time                         { return c.now }
func (c *fixedClock) After(d time.Duration) <-chan time.Time { return time.After(0) }
func (c *fixedClock) Sleep(d time.Duration)                  {}

func openIdentityTestDB(t *testing.T) *sql.DB {
	t.Helper()
	t.Setenv(config.DATABASE_TYPE, config.DATABASE_TYPE_SQLLITE)

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE identities (
		id       VARCHAR(36) PRIMARY KEY,
		owner_id VARCHAR(36) NOT NULL,
		channel  VARCHAR(64) NOT NULL,
		address  VARCHAR(512) NOT NULL,
		created  TIMESTAMP NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// Listing without a channel must return every identity of the owner, not
// silently match against an empty channel name.
func TestFindByOwnerAndChannelEmptyChannelListsAll(t *testing.T) {
	db := openIdentityTestDB(t)
	clock := &fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	repo := NewIdentityRepository(db, clock)

	seed := []domain.Identity{
		{ID: "id-1", OwnerID: "user-1", Channel: "webhook", Address: "https://example.com/hook", Created: clock.now},
		{ID: "id-2", OwnerID: "user-1", Channel: "email", Address: "me@example.com", Created: clock.now.Add(time.Second)},
		{ID: "id-3", OwnerID: "user-2", Channel: "webhook", Address: "https://other.example.com", Created: clock.now},
	}
	for i := range seed {
		if err := repo.Save(&seed[i]); err != nil {
			t.Fatalf("save %s: %v", seed[i].ID, err)
		}
	}

	all, err := repo.FindByOwnerAndChannel("user-1", "")
	if err != nil {
		t.Fatalf("list without channel: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d identities, want 2", len(all))
	}
	if all[0].ID != "id-1" || all[1].ID != "id-2" {
		t.Errorf("identities = %v, %v, want id-1 then id-2 by created", all[0].ID, all[1].ID)
	}

	filtered, err := repo.FindByOwnerAndChannel("user-1", "webhook")
	if err != nil {
		t.Fatalf("list with channel: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Address != "https://example.com/hook" {
		t.Errorf("filtered = %+v, want only the webhook identity", filtered)
	}

	none, err := repo.FindByOwnerAndChannel("user-1", "sms")
	if err != nil {
		t.Fatalf("list unknown channel: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("unknown channel returned %d identities, want none", len(none))
	}
}
