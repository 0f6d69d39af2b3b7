package tagstore

import (
	"io"
	"testing"

	"cratesync/internal/models"
	"cratesync/internal/shared"
	tu "cratesync/internal/testing"
)

func mustTagStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(tu.MustOpenDB(t), shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("failed to create tag store: %v", err)
	}
	return s
}

func houseRef() models.TagReference {
	return models.TagReference{CategoryID: "genre", SubcategoryID: "electronic", TagID: "house"}
}

func TestTagStoreMutations(t *testing.T) {
	const uri = "spotify:track:abc"

	t.Run("SetRating", func(t *testing.T) {
		s := mustTagStore(t)

		if err := s.SetRating(uri, 4); err != nil {
			t.Fatalf("set rating failed: %v", err)
		}

		rec := s.Get(uri)
		if rec == nil || rec.Rating != 4 {
			t.Errorf("expected rating 4, got %+v", rec)
		}
		if rec.ModifiedAt.IsZero() || rec.CreatedAt.IsZero() {
			t.Error("expected timestamps set on first mutation")
		}
	})

	t.Run("SetRating Validates Range", func(t *testing.T) {
		s := mustTagStore(t)
		if err := s.SetRating(uri, 6); err == nil {
			t.Error("expected rating above 5 to be rejected")
		}
		if err := s.SetRating(uri, -1); err == nil {
			t.Error("expected negative rating to be rejected")
		}
	})

	t.Run("SetEnergy Validates Range", func(t *testing.T) {
		s := mustTagStore(t)
		if err := s.SetEnergy(uri, 11); err == nil {
			t.Error("expected energy above 10 to be rejected")
		}
		if err := s.SetEnergy(uri, 7); err != nil {
			t.Errorf("expected energy 7 accepted, got %v", err)
		}
	})

	t.Run("SetBPM", func(t *testing.T) {
		s := mustTagStore(t)

		bpm := 126.5
		if err := s.SetBPM(uri, &bpm); err != nil {
			t.Fatalf("set bpm failed: %v", err)
		}
		if rec := s.Get(uri); rec.BPM == nil || *rec.BPM != 126.5 {
			t.Errorf("expected bpm 126.5, got %+v", rec.BPM)
		}

		if err := s.SetBPM(uri, nil); err != nil {
			t.Fatalf("clear bpm failed: %v", err)
		}
		if rec := s.Get(uri); rec.BPM != nil {
			t.Error("expected bpm cleared")
		}

		invalid := -10.0
		if err := s.SetBPM(uri, &invalid); err == nil {
			t.Error("expected negative bpm to be rejected")
		}
	})

	t.Run("AddTag Is Idempotent", func(t *testing.T) {
		s := mustTagStore(t)

		if err := s.AddTag(uri, houseRef()); err != nil {
			t.Fatalf("add tag failed: %v", err)
		}
		if err := s.AddTag(uri, houseRef()); err != nil {
			t.Fatalf("repeat add failed: %v", err)
		}

		rec := s.Get(uri)
		if len(rec.Tags) != 1 {
			t.Errorf("expected one tag after duplicate add, got %v", rec.Tags)
		}
	})

	t.Run("RemoveTag", func(t *testing.T) {
		s := mustTagStore(t)

		if err := s.AddTag(uri, houseRef()); err != nil {
			t.Fatal(err)
		}
		if err := s.RemoveTag(uri, houseRef()); err != nil {
			t.Fatalf("remove tag failed: %v", err)
		}

		if rec := s.Get(uri); rec.HasTag(houseRef()) {
			t.Error("expected tag removed")
		}
	})

	t.Run("DeleteTrack", func(t *testing.T) {
		s := mustTagStore(t)

		if err := s.SetRating(uri, 3); err != nil {
			t.Fatal(err)
		}
		if err := s.DeleteTrack(uri); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		if rec := s.Get(uri); rec != nil {
			t.Errorf("expected record gone, got %+v", rec)
		}

		if err := s.DeleteTrack(uri); err == nil {
			t.Error("expected error deleting an untracked uri")
		}
	})

	t.Run("Upsert Preserves CreatedAt", func(t *testing.T) {
		s := mustTagStore(t)

		if err := s.SetRating(uri, 3); err != nil {
			t.Fatal(err)
		}
		created := s.Get(uri).CreatedAt

		if err := s.Upsert(models.TrackRecord{URI: uri, Rating: 5}); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}

		rec := s.Get(uri)
		if rec.Rating != 5 {
			t.Errorf("expected upsert to replace the record, got %+v", rec)
		}
		if !rec.CreatedAt.Equal(created) {
			t.Error("expected upsert to preserve the original creation time")
		}
	})

	t.Run("Empty URI Rejected", func(t *testing.T) {
		s := mustTagStore(t)
		if err := s.SetRating("", 3); err == nil {
			t.Error("expected empty uri to be rejected")
		}
		if err := s.Upsert(models.TrackRecord{}); err == nil {
			t.Error("expected upsert without uri to be rejected")
		}
	})
}

func TestTagStorePersistence(t *testing.T) {
	db := tu.MustOpenDB(t)
	logger := shared.NewLogger(io.Discard)

	s, err := NewStore(db, logger)
	if err != nil {
		t.Fatalf("failed to create tag store: %v", err)
	}

	const uri = "spotify:track:persisted"
	bpm := 128.0

	if err := s.SetRating(uri, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEnergy(uri, 8); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBPM(uri, &bpm); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTag(uri, houseRef()); err != nil {
		t.Fatal(err)
	}

	// A second store over the same database must see identical state.
	reloaded, err := NewStore(db, logger)
	if err != nil {
		t.Fatalf("failed to reload tag store: %v", err)
	}

	rec := reloaded.Get(uri)
	if rec == nil {
		t.Fatal("expected record to survive reload")
	}
	if rec.Rating != 5 || rec.Energy != 8 || rec.BPM == nil || *rec.BPM != 128.0 {
		t.Errorf("unexpected reloaded record: %+v", rec)
	}
	if !rec.HasTag(houseRef()) {
		t.Errorf("expected tag to survive reload, got %v", rec.Tags)
	}
}

func TestTagStoreEvents(t *testing.T) {
	const uri = "spotify:track:events"

	t.Run("Mutations Notify Subscribers", func(t *testing.T) {
		s := mustTagStore(t)

		events, cancel := s.Subscribe()
		defer cancel()

		if err := s.SetRating(uri, 4); err != nil {
			t.Fatal(err)
		}

		change := <-events
		rec, ok := change[uri]
		if !ok || rec == nil || rec.Rating != 4 {
			t.Errorf("expected change event with updated record, got %+v", change)
		}
	})

	t.Run("Delete Notifies With Nil Record", func(t *testing.T) {
		s := mustTagStore(t)
		if err := s.SetRating(uri, 4); err != nil {
			t.Fatal(err)
		}

		events, cancel := s.Subscribe()
		defer cancel()

		if err := s.DeleteTrack(uri); err != nil {
			t.Fatal(err)
		}

		change := <-events
		rec, ok := change[uri]
		if !ok || rec != nil {
			t.Errorf("expected nil-record change for deletion, got %+v", change)
		}
	})

	t.Run("Cancel Closes The Channel", func(t *testing.T) {
		s := mustTagStore(t)

		events, cancel := s.Subscribe()
		cancel()

		if _, open := <-events; open {
			t.Error("expected channel closed after cancel")
		}

		// Mutations after cancel must not panic on the closed channel.
		if err := s.SetRating(uri, 2); err != nil {
			t.Fatalf("mutation after cancel failed: %v", err)
		}
	})

	t.Run("Event Records Are Copies", func(t *testing.T) {
		s := mustTagStore(t)

		events, cancel := s.Subscribe()
		defer cancel()

		if err := s.AddTag(uri, houseRef()); err != nil {
			t.Fatal(err)
		}

		change := <-events
		change[uri].Tags[0].TagID = "mutated"

		if rec := s.Get(uri); rec.Tags[0].TagID != "house" {
			t.Error("expected event payload mutation to not reach the store")
		}
	})
}
