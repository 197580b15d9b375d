// Package delivery hands a finished message file to the user.
package delivery

import (
	"context"
	"strings"
	"unicode"
)

// Extension is appended to every delivered filename
const Extension = ".eml"

// Artifact is a message file ready to be saved
type Artifact struct {
	Filename string
	Payload  []byte
}

// Sink saves an artifact and returns where it ended up
type Sink interface {
	Deliver(ctx context.Context, a Artifact) (string, error)
}

const unsafeChars = `/\?%*:|"<>`

// Filename turns a subject into a safe filename ending in Extension
func Filename(subject string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafeChars, r) || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, subject)

	name = strings.Trim(name, " .")
	if name == "" {
		name = "message"
	}

	if !strings.EqualFold(extOf(name), Extension) {
		name += Extension
	}
	return name
}

func extOf(name string) string {
	if len(name) < len(Extension) {
		return ""
	}
	return name[len(name)-len(Extension):]
}
