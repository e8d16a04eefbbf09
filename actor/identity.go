package actor

import (
	"fmt"
	"strings"
	"unicode"
)

const maxNameLen = 64

// KeyFragment is appended to the actor id to form its key id.
const KeyFragment = "#main-key"

// Identity holds the URLs derived from an actor name. All fields are pure
// functions of the base URL and the name.
type Identity struct {
	Name        string
	URL         string
	ID          string
	Inbox       string
	Outbox      string
	SharedInbox string
	KeyID       string
}

// Derive returns the identity of name under base. base must not end with
// a slash.
func Derive(base, name string) Identity {
	actorURL := base + "/@" + name
	id := actorURL + "/actor.json"

	return Identity{
		Name:        name,
		URL:         actorURL,
		ID:          id,
		Inbox:       actorURL + "/inbox",
		Outbox:      actorURL + "/outbox",
		SharedInbox: base + "/inbox",
		KeyID:       id + KeyFragment,
	}
}

// NoteURL returns the URL of a note published by the actor.
func (i Identity) NoteURL(noteID string) string {
	return i.URL + "/notes/" + noteID + ".json"
}

// ActivityURL returns the URL of an activity performed by the actor.
func (i Identity) ActivityURL(activityID string) string {
	return i.URL + "/activities/" + activityID + ".json"
}

// ValidateName checks that name can be embedded in actor URLs.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}

	if len(name) > maxNameLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, maxNameLen)
	}

	if strings.ContainsAny(name, `/\@#?%`) {
		return fmt.Errorf("%w: %q contains a reserved character", ErrInvalidName, name)
	}

	for _, r := range name {
		if unicode.IsSpace(r) || unicode.IsControl(r) || r == unicode.ReplacementChar {
			return fmt.Errorf("%w: %q contains whitespace or control characters", ErrInvalidName, name)
		}
	}

	return nil
}

// NameFromKeyID returns the actor name of a local key id, i.e. one of the
// form <base>/@<name>/actor.json#main-key.
func NameFromKeyID(base, keyID string) (string, bool) {
	rest, ok := strings.CutPrefix(keyID, base+"/@")
	if !ok {
		return "", false
	}

	name, ok := strings.CutSuffix(rest, "/actor.json"+KeyFragment)
	if !ok || ValidateName(name) != nil {
		return "", false
	}

	return name, true
}
