package models

import "time"

// Like records that UserID likes VideoID. At most one row exists per pair;
// its absence means "not liked". Dislikes are never persisted.
type Like struct {
	VideoID   string
	UserID    string
	CreatedAt time.Time
}

// Reaction is the caller-held view state of the like/dislike buttons.
// Liked and Disliked are mutually exclusive. Only Liked mirrors a persisted
// row; Disliked lives in the caller alone and merely hides a like that may
// still be persisted.
type Reaction struct {
	Liked    bool
	Disliked bool
}

// WithLiked returns the state after the server reported liked.
func (r Reaction) WithLiked(liked bool) Reaction {
	if liked {
		return Reaction{Liked: true}
	}
	return Reaction{Disliked: r.Disliked}
}

// ToggleDislike flips the local dislike flag. Setting it clears Liked for
// display only; the persisted like row is left alone.
func (r Reaction) ToggleDislike() Reaction {
	if r.Disliked {
		return Reaction{}
	}
	return Reaction{Disliked: true}
}

// Visible combines the local state with the persisted liked flag. A local
// dislike wins.
func (r Reaction) Visible(persistedLiked bool) Reaction {
	if r.Disliked {
		return Reaction{Disliked: true}
	}
	return Reaction{Liked: persistedLiked}
}
