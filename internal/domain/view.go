package domain

import "time"

// Participant is one rendered participant entry. EntryID is the structural
// identity of the entry: two entries with the same email stay distinct.
type Participant struct {
	EntryID string `json:"entry_id"`
	Email   string `json:"email"`
}

// ActivityView is the client-side model behind one activity card.
type ActivityView struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Schedule     string        `json:"schedule"`
	Capacity     int           `json:"capacity"`
	Participants []Participant `json:"participants"`
}

// Count returns the number of participant entries currently believed.
func (a *ActivityView) Count() int {
	return len(a.Participants)
}

// SpotsLeft returns capacity minus participant count, floored at 0.
func (a *ActivityView) SpotsLeft() int {
	if left := a.Capacity - len(a.Participants); left > 0 {
		return left
	}
	return 0
}

// Append adds an entry at the end of the participant list.
func (a *ActivityView) Append(p Participant) {
	a.Participants = append(a.Participants, p)
}

// Remove deletes the entry with the given identity. Removing an entry that
// is not present is a no-op and reports false.
func (a *ActivityView) Remove(entryID string) bool {
	for i, p := range a.Participants {
		if p.EntryID == entryID {
			a.Participants = append(a.Participants[:i], a.Participants[i+1:]...)
			return true
		}
	}
	return false
}

// FormState holds the values of the signup form between requests.
type FormState struct {
	Activity string `json:"activity"`
	Email    string `json:"email"`
}

// ViewState is everything one visitor currently sees.
type ViewState struct {
	Activities []*ActivityView `json:"activities"`
	Loaded     bool            `json:"loaded"`
	LoadFailed bool            `json:"load_failed"`
	Banner     Banner          `json:"banner"`
	Form       FormState       `json:"form"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// Patched is set when a form post committed the view and cleared by the
	// next page render, which then shows the view as stored.
	Patched bool `json:"patched"`
}

// NewViewState returns an empty, not yet loaded view.
func NewViewState() *ViewState {
	return &ViewState{}
}

// Find returns the card with the given name, or nil.
func (v *ViewState) Find(name string) *ActivityView {
	for _, a := range v.Activities {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// RemoveEntry removes the entry with the given identity from whichever card
// holds it and returns that card. It returns nil when no card holds it.
func (v *ViewState) RemoveEntry(entryID string) *ActivityView {
	for _, a := range v.Activities {
		if a.Remove(entryID) {
			return a
		}
	}
	return nil
}

// Replace discards every card and rebuilds the view from catalog, minting a
// fresh identity for each participant entry.
func (v *ViewState) Replace(catalog Catalog, newID func() string) {
	v.Activities = make([]*ActivityView, 0, len(catalog))
	for _, a := range catalog {
		card := &ActivityView{
			Name:         a.Name,
			Description:  a.Description,
			Schedule:     a.Schedule,
			Capacity:     a.MaxParticipants,
			Participants: make([]Participant, 0, len(a.Participants)),
		}
		for _, email := range a.Participants {
			card.Append(Participant{EntryID: newID(), Email: email})
		}
		v.Activities = append(v.Activities, card)
	}
	v.Loaded = true
	v.LoadFailed = false
}

// Fail clears every card and marks the last load as failed.
func (v *ViewState) Fail() {
	v.Activities = nil
	v.Loaded = true
	v.LoadFailed = true
}
