package deploy

import (
	"regexp"
	"strings"

	"github.com/sitesmith/sitesmith/internal/framework"
	"github.com/sitesmith/sitesmith/internal/space"
)

// SuccessMarker prefixes every assistant-authored deployment confirmation.
// Target resolution scans conversation history for it, so the deployer and
// the resolver must agree on the exact phrase.
const SuccessMarker = "deployed to"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of conversation history, oldest first.
type Message struct {
	Role    Role
	Content string
}

// Source records which resolution strategy produced a target.
type Source int

const (
	SourceExplicit Source = iota
	SourceHistory
	SourceSession
	SourceFresh
)

func (s Source) String() string {
	switch s {
	case SourceExplicit:
		return "explicit"
	case SourceHistory:
		return "history"
	case SourceSession:
		return "session"
	case SourceFresh:
		return "fresh"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of target resolution: where to deploy and
// whether the space is expected to already exist.
type Resolution struct {
	Target   space.Target
	IsUpdate bool
	Source   Source
}

var spaceURLRe = regexp.MustCompile(`/spaces/([A-Za-z0-9][A-Za-z0-9_.\-]*)/([A-Za-z0-9][A-Za-z0-9_.\-]*)`)

// ParseSpaceURL extracts the target from a pasted space URL. ok is false
// when s carries no space reference.
func ParseSpaceURL(s string) (space.Target, bool) {
	m := spaceURLRe.FindStringSubmatch(s)
	if m == nil {
		return space.Target{}, false
	}
	return space.Target{Owner: m[1], Name: m[2]}, true
}

// ResolveInput carries everything target resolution may consult.
type ResolveInput struct {
	// ExplicitID is a caller-supplied "owner/name", tried first.
	ExplicitID string
	// History is the session's conversation, oldest first.
	History []Message
	// OwnerHint gates user-authored space references: a URL pasted by the
	// user is only trusted when its owner matches the hint. Empty means
	// user references are never trusted.
	OwnerHint string
	// DefaultOwner owns freshly minted targets.
	DefaultOwner string
	// NameSeed names freshly minted targets, typically the user's prompt.
	NameSeed string
}

// ResolveTarget decides where a generation should deploy. Strategies are
// tried in strict priority order and the first hit wins:
//
//  1. an explicit target identifier from the caller
//  2. a deployment confirmation or trusted space URL in history,
//     newest turn first
//  3. the session's recorded deployment for the same framework
//  4. a freshly minted name under the default owner
//
// Only the last strategy yields IsUpdate=false.
func ResolveTarget(in ResolveInput, sessions *SessionStore, sessionID string, fw framework.Framework) (Resolution, error) {
	if in.ExplicitID != "" {
		target, err := space.ParseTarget(in.ExplicitID)
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{Target: target, IsUpdate: true, Source: SourceExplicit}, nil
	}

	if target, ok := targetFromHistory(in.History, in.OwnerHint); ok {
		return Resolution{Target: target, IsUpdate: true, Source: SourceHistory}, nil
	}

	if sessions != nil {
		if rec, ok := sessions.Latest(sessionID, fw); ok {
			return Resolution{Target: rec.Target, IsUpdate: true, Source: SourceSession}, nil
		}
	}

	target := space.Target{Owner: in.DefaultOwner, Name: space.MintName(in.NameSeed)}
	return Resolution{Target: target, IsUpdate: false, Source: SourceFresh}, nil
}

// targetFromHistory scans turns newest-first. Assistant turns count only
// when they carry the deployment success marker; user turns count only
// when the referenced owner matches the hint, so a pasted link to someone
// else's space never becomes an update target.
func targetFromHistory(history []Message, ownerHint string) (space.Target, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		m := spaceURLRe.FindStringSubmatch(msg.Content)
		if m == nil {
			continue
		}
		target := space.Target{Owner: m[1], Name: m[2]}

		switch msg.Role {
		case RoleAssistant:
			if strings.Contains(strings.ToLower(msg.Content), SuccessMarker) {
				return target, true
			}
		case RoleUser:
			if ownerHint != "" && target.Owner == ownerHint {
				return target, true
			}
		}
	}
	return space.Target{}, false
}
