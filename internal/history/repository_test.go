package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-soundscape/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-soundscape/internal/sequencer"
	"github.com/nerrad567/gray-logic-soundscape/migrations"
)

// setupTestRepo opens a migrated in-memory database.
func setupTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

var base = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func TestRepository_SequenceLifecycle(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.RecordSequenceStart(ctx, Sequence{ID: "seq-1", StartedAt: base, Planned: 2}); err != nil {
		t.Fatalf("RecordSequenceStart() error = %v", err)
	}
	for i, track := range []int{7, 12} {
		err := repo.RecordPlay(ctx, Play{
			SequenceID: "seq-1",
			Ordinal:    i + 1,
			Folder:     1,
			Track:      track,
			PlayedAt:   base.Add(time.Duration(i) * 200 * time.Millisecond),
			NextDelay:  150 * time.Millisecond,
		})
		if err != nil {
			t.Fatalf("RecordPlay(%d) error = %v", i, err)
		}
	}
	if err := repo.RecordSequenceEnd(ctx, "seq-1", base.Add(time.Second), 2, EndCompleted); err != nil {
		t.Fatalf("RecordSequenceEnd() error = %v", err)
	}

	seqs, err := repo.ListSequences(ctx, 10)
	if err != nil {
		t.Fatalf("ListSequences() error = %v", err)
	}
	if len(seqs) != 1 {
		t.Fatalf("ListSequences() returned %d, want 1", len(seqs))
	}
	got := seqs[0]
	if got.Planned != 2 || got.Played != 2 || got.EndReason != EndCompleted {
		t.Errorf("sequence = %+v", got)
	}
	if !got.StartedAt.Equal(base) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, base)
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(base.Add(time.Second)) {
		t.Errorf("EndedAt = %v", got.EndedAt)
	}

	plays, err := repo.ListPlays(ctx, "seq-1")
	if err != nil {
		t.Fatalf("ListPlays() error = %v", err)
	}
	if len(plays) != 2 {
		t.Fatalf("ListPlays() returned %d, want 2", len(plays))
	}
	if plays[0].Track != 7 || plays[1].Track != 12 || plays[1].Ordinal != 2 {
		t.Errorf("plays = %+v", plays)
	}
	if plays[0].NextDelay != 150*time.Millisecond {
		t.Errorf("NextDelay = %v, want 150ms", plays[0].NextDelay)
	}
}

func TestRepository_PlayErrorStored(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if err := repo.RecordSequenceStart(ctx, Sequence{ID: "seq-e", StartedAt: base, Planned: 1}); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordPlay(ctx, Play{SequenceID: "seq-e", Ordinal: 1, Folder: 1, Track: 3, PlayedAt: base, Error: "write failed"}); err != nil {
		t.Fatal(err)
	}

	plays, err := repo.ListPlays(ctx, "seq-e")
	if err != nil {
		t.Fatal(err)
	}
	if len(plays) != 1 || plays[0].Error != "write failed" {
		t.Errorf("plays = %+v", plays)
	}
}

func TestRepository_Errors(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func() error
		want error
	}{
		{"start without id", func() error { return repo.RecordSequenceStart(ctx, Sequence{}) }, ErrInvalidSequence},
		{"play without id", func() error { return repo.RecordPlay(ctx, Play{}) }, ErrInvalidSequence},
		{"play unknown sequence", func() error { return repo.RecordPlay(ctx, Play{SequenceID: "seq-x", PlayedAt: base}) }, ErrNotFound},
		{"end without id", func() error { return repo.RecordSequenceEnd(ctx, "", base, 0, EndStopped) }, ErrInvalidSequence},
		{"end unknown sequence", func() error { return repo.RecordSequenceEnd(ctx, "seq-x", base, 0, EndStopped) }, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fn(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRepository_ListSequencesOrderAndLimit(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	for i, id := range []string{"seq-a", "seq-b", "seq-c"} {
		// Sub-second spacing checks that stored timestamps sort correctly.
		start := base.Add(time.Duration(i) * 150 * time.Millisecond)
		if err := repo.RecordSequenceStart(ctx, Sequence{ID: id, StartedAt: start, Planned: 3}); err != nil {
			t.Fatal(err)
		}
	}

	seqs, err := repo.ListSequences(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(seqs) != 2 || seqs[0].ID != "seq-c" || seqs[1].ID != "seq-b" {
		t.Errorf("ListSequences(2) = %+v", seqs)
	}
	if seqs[0].EndedAt != nil {
		t.Error("running sequence should have nil EndedAt")
	}

	all, err := repo.ListSequences(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ListSequences(0) returned %d, want 3", len(all))
	}

	none, err := repo.ListPlays(ctx, "seq-a")
	if err != nil {
		t.Fatal(err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListPlays() = %v, want empty slice", none)
	}
}

func TestRepository_Settings(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	if _, err := repo.LoadSettings(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSettings() on empty table error = %v, want ErrNotFound", err)
	}

	want := RuntimeSettings{Settings: sequencer.DefaultSettings(), Volume: 22}
	want.Settings.MaxTrack = 12
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}

	want.Settings.Group = 4
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("second SaveSettings() error = %v", err)
	}

	got, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}
}
