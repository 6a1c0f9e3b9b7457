package domain

import "time"

// MessageKind is the style category of the status banner.
type MessageKind string

const (
	MessageInfo    MessageKind = "info"
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// DefaultHideAfter is how long a banner message stays visible.
const DefaultHideAfter = 5 * time.Second

// Banner is the transient status message. Every Show schedules its own hide
// HideAfter later and a later Show does not cancel earlier hides, so the
// hide belonging to an earlier message can hide a newer one early.
type Banner struct {
	Text      string        `json:"text"`
	Kind      MessageKind   `json:"kind"`
	HideAfter time.Duration `json:"hide_after"`
	// Shows holds the instants of the shows whose hide has not fired yet,
	// oldest first.
	Shows []time.Time `json:"shows,omitempty"`
}

// Show sets the banner text and kind at now.
func (b *Banner) Show(text string, kind MessageKind, now time.Time) {
	if b.HideAfter <= 0 {
		b.HideAfter = DefaultHideAfter
	}

	// Hides that already fired cannot affect the new message.
	pending := b.Shows[:0]
	for _, shown := range b.Shows {
		if shown.Add(b.HideAfter).After(now) {
			pending = append(pending, shown)
		}
	}

	b.Text = text
	b.Kind = kind
	b.Shows = append(pending, now)
}

// Visible reports whether the banner is shown at now: the latest show set
// it visible and no pending hide has fired since.
func (b *Banner) Visible(now time.Time) bool {
	if len(b.Shows) == 0 {
		return false
	}
	hideAfter := b.HideAfter
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}

	latest := b.Shows[len(b.Shows)-1]
	for _, shown := range b.Shows {
		hideAt := shown.Add(hideAfter)
		if hideAt.After(latest) && !hideAt.After(now) {
			return false
		}
	}
	return true
}

// Remaining is how long the banner stays visible after now: the time until
// the first pending hide, which may belong to an earlier show. It is zero
// when the banner is not visible.
func (b *Banner) Remaining(now time.Time) time.Duration {
	if !b.Visible(now) {
		return 0
	}
	hideAfter := b.HideAfter
	if hideAfter <= 0 {
		hideAfter = DefaultHideAfter
	}

	latest := b.Shows[len(b.Shows)-1]
	next := latest.Add(hideAfter)
	for _, shown := range b.Shows {
		if hideAt := shown.Add(hideAfter); hideAt.After(latest) && hideAt.Before(next) {
			next = hideAt
		}
	}
	return next.Sub(now)
}
