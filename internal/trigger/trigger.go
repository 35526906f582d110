package trigger

import (
	"fmt"
	"strings"
)

// Kind identifies the source of an incoming event.
type Kind string

const (
	// Push is a branch push event.
	Push Kind = "push"
	// PullRequest is a pull request open/update event.
	PullRequest Kind = "pull_request"
)

// ParseKind validates an event kind supplied on the CLI.
func ParseKind(input string) (Kind, error) {
	switch Kind(input) {
	case Push, PullRequest:
		return Kind(input), nil
	default:
		return "", fmt.Errorf("unsupported event kind %q (want push or pull_request)", input)
	}
}

// Event describes an incoming trigger event. Branch is meaningful only for
// push events.
type Event struct {
	Kind   Kind
	Branch string
}

// PushRule matches push events whose branch satisfies at least one pattern.
// An empty pattern list matches every branch.
type PushRule struct {
	Branches []Pattern
}

// PullRequestRule matches every pull request event.
type PullRequestRule struct{}

// Rules is the trigger rule set of a pipeline. A nil rule means the
// corresponding event kind never triggers a run.
type Rules struct {
	Push        *PushRule
	PullRequest *PullRequestRule
}

// Empty reports whether no rule is configured at all.
func (r Rules) Empty() bool {
	return r.Push == nil && r.PullRequest == nil
}

// Describe renders each configured rule as a human readable line.
func (r Rules) Describe() []string {
	var out []string
	if r.Push != nil {
		if len(r.Push.Branches) == 0 {
			out = append(out, "push (any branch)")
		} else {
			patterns := make([]string, 0, len(r.Push.Branches))
			for _, p := range r.Push.Branches {
				patterns = append(patterns, p.String())
			}
			out = append(out, fmt.Sprintf("push (branches: %s)", strings.Join(patterns, ", ")))
		}
	}
	if r.PullRequest != nil {
		out = append(out, "pull_request")
	}
	return out
}

// Matches reports whether the event satisfies at least one configured rule.
// A non-match is a normal outcome, not an error.
func (r Rules) Matches(ev Event) bool {
	switch ev.Kind {
	case Push:
		if r.Push == nil {
			return false
		}
		if len(r.Push.Branches) == 0 {
			return true
		}
		for _, p := range r.Push.Branches {
			if p.Match(ev.Branch) {
				return true
			}
		}
		return false
	case PullRequest:
		return r.PullRequest != nil
	default:
		return false
	}
}
