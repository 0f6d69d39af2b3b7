package models

import "testing"

func TestSmartPlaylistValidate(t *testing.T) {
	valid := func() SmartPlaylist {
		return SmartPlaylist{
			PlaylistID:   "pl1",
			PlaylistName: "Peak Time",
			Criteria:     Criteria{ActiveTagFilters: []TagReference{}},
		}
	}

	t.Run("Valid", func(t *testing.T) {
		p := valid()
		if err := p.Validate(); err != nil {
			t.Errorf("expected valid playlist, got %v", err)
		}
	})

	t.Run("Missing ID", func(t *testing.T) {
		p := valid()
		p.PlaylistID = ""
		if err := p.Validate(); err == nil {
			t.Error("expected error for missing playlist ID")
		}
	})

	t.Run("Missing Name", func(t *testing.T) {
		p := valid()
		p.PlaylistName = ""
		if err := p.Validate(); err == nil {
			t.Error("expected error for missing playlist name")
		}
	})

	t.Run("Missing Criteria Filters", func(t *testing.T) {
		p := valid()
		p.Criteria.ActiveTagFilters = nil
		if err := p.Validate(); err == nil {
			t.Error("expected error for nil active tag filters")
		}
	})
}

func TestHasTrack(t *testing.T) {
	p := SmartPlaylist{TrackURIs: []string{"spotify:track:a", "spotify:track:b"}}

	if !p.HasTrack("spotify:track:a") {
		t.Error("expected snapshot member to be found")
	}
	if p.HasTrack("spotify:track:c") {
		t.Error("expected absent track to not be found")
	}
}
