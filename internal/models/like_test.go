package models

import "testing"

func TestReaction_MutualExclusion(t *testing.T) {
	var r Reaction

	r = r.WithLiked(true)
	if !r.Liked || r.Disliked {
		t.Fatalf("after like: %+v", r)
	}

	r = r.ToggleDislike()
	if r.Liked || !r.Disliked {
		t.Fatalf("after dislike: %+v", r)
	}

	r = r.WithLiked(true)
	if !r.Liked || r.Disliked {
		t.Fatalf("liking clears dislike: %+v", r)
	}

	r = r.WithLiked(false)
	if r.Liked || r.Disliked {
		t.Fatalf("after unlike: %+v", r)
	}

	r = r.ToggleDislike().ToggleDislike()
	if r != (Reaction{}) {
		t.Fatalf("double dislike toggle must reset: %+v", r)
	}
}

func TestReaction_UnlikeKeepsLocalDislike(t *testing.T) {
	r := Reaction{Disliked: true}.WithLiked(false)
	if !r.Disliked {
		t.Fatalf("server unlike must not drop the local dislike: %+v", r)
	}
}

func TestReaction_Visible(t *testing.T) {
	tests := []struct {
		name      string
		local     Reaction
		persisted bool
		want      Reaction
	}{
		{"nothing", Reaction{}, false, Reaction{}},
		{"persisted like", Reaction{}, true, Reaction{Liked: true}},
		{"dislike hides persisted like", Reaction{Disliked: true}, true, Reaction{Disliked: true}},
		{"stale local like", Reaction{Liked: true}, false, Reaction{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.local.Visible(tt.persisted); got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
