package activity

import (
	"time"

	"github.com/vitalvas/apkit/actor"
)

// placeholderTime is the fixed publication time of placeholder objects.
var placeholderTime = time.Date(2022, time.November, 14, 3, 8, 11, 0, time.UTC)

// PlaceholderNote renders the note noteID of author. Objects are not
// stored, so the content is fixed and depends only on the inputs.
func PlaceholderNote(author actor.Identity, noteID string) *Note {
	return &Note{
		ID:           author.NoteURL(noteID),
		Type:         TypeNote,
		Published:    placeholderTime,
		AttributedTo: author.ID,
		Content:      "<p>hello world</p>",
		To:           []string{Public},
	}
}

// PlaceholderCreate renders the activity activityID of author wrapping a
// placeholder note with the same id.
func PlaceholderCreate(author actor.Identity, activityID string) *Create {
	return &Create{
		Context: ContextActivityStreams,
		ID:      author.ActivityURL(activityID),
		Type:    TypeCreate,
		Actor:   author.ID,
		Object:  PlaceholderNote(author, activityID),
	}
}
