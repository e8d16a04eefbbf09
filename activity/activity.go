// Package activity builds the ActivityStreams objects exchanged between
// servers: notes and the Create activities wrapping them.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitalvas/apkit/actor"
)

// Vocabulary constants.
const (
	ContextActivityStreams = "https://www.w3.org/ns/activitystreams"
	Public                 = "https://www.w3.org/ns/activitystreams#Public"

	TypeNote   = "Note"
	TypeCreate = "Create"
)

// MediaType is the content type of ActivityPub documents.
const MediaType = "application/activity+json"

// ErrInvalidActivity is returned when an incoming document lacks the
// fields every activity must carry.
var ErrInvalidActivity = errors.New("activity: invalid activity")

// Note is an ActivityStreams Note.
type Note struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Published    time.Time `json:"published"`
	AttributedTo string    `json:"attributedTo"`
	InReplyTo    string    `json:"inReplyTo,omitempty"`
	Content      string    `json:"content"`
	To           []string  `json:"to"`
}

// Create is a Create activity wrapping a Note.
type Create struct {
	Context string `json:"@context"`
	ID      string `json:"id"`
	Type    string `json:"type"`
	Actor   string `json:"actor"`
	Object  *Note  `json:"object"`
}

// NewID returns a fresh random object id.
func NewID() string {
	return uuid.NewString()
}

// NewNote returns a public note by author with a fresh id.
func NewNote(author actor.Identity, content, inReplyTo string, published time.Time) *Note {
	return &Note{
		ID:           author.NoteURL(NewID()),
		Type:         TypeNote,
		Published:    published.UTC().Truncate(time.Second),
		AttributedTo: author.ID,
		InReplyTo:    inReplyTo,
		Content:      content,
		To:           []string{Public},
	}
}

// NewCreate wraps note in a Create activity by author with a fresh id.
func NewCreate(author actor.Identity, note *Note) *Create {
	return &Create{
		Context: ContextActivityStreams,
		ID:      author.ActivityURL(NewID()),
		Type:    TypeCreate,
		Actor:   author.ID,
		Object:  note,
	}
}

// Incoming is the subset of an inbound activity needed to route it.
type Incoming struct {
	ID     string          `json:"id"`
	Type   string          `json:"type"`
	Actor  json.RawMessage `json:"actor"`
	Object json.RawMessage `json:"object,omitempty"`
}

// DecodeIncoming parses an inbound activity. The type is required; the
// actor may be a string or an object with an id.
func DecodeIncoming(data []byte) (*Incoming, error) {
	var in Incoming
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidActivity, err)
	}

	if in.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidActivity)
	}

	return &in, nil
}

// ActorID returns the id of the activity's actor, or "" when absent.
func (in *Incoming) ActorID() string {
	if len(in.Actor) == 0 {
		return ""
	}

	var id string
	if err := json.Unmarshal(in.Actor, &id); err == nil {
		return id
	}

	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(in.Actor, &obj); err == nil {
		return obj.ID
	}

	return ""
}
