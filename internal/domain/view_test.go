package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("entry-%d", n)
	}
}

func TestActivityView_SpotsLeft(t *testing.T) {
	tests := []struct {
		name         string
		capacity     int
		participants int
		want         int
	}{
		{name: "empty", capacity: 12, participants: 0, want: 12},
		{name: "partially filled", capacity: 2, participants: 1, want: 1},
		{name: "full", capacity: 2, participants: 2, want: 0},
		{name: "over capacity floors at zero", capacity: 1, participants: 3, want: 0},
		{name: "zero capacity", capacity: 0, participants: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &ActivityView{Capacity: tt.capacity}
			for i := 0; i < tt.participants; i++ {
				a.Append(Participant{EntryID: fmt.Sprint(i), Email: "p@x.com"})
			}
			assert.Equal(t, tt.want, a.SpotsLeft())
			if tt.participants <= tt.capacity {
				assert.Equal(t, tt.capacity, a.SpotsLeft()+a.Count())
			}
		})
	}
}

func TestActivityView_RemoveByIdentity(t *testing.T) {
	a := &ActivityView{Capacity: 5}
	a.Append(Participant{EntryID: "1", Email: "dup@x.com"})
	a.Append(Participant{EntryID: "2", Email: "dup@x.com"})

	assert.True(t, a.Remove("2"))
	require.Len(t, a.Participants, 1)
	assert.Equal(t, "1", a.Participants[0].EntryID)

	// Second removal of the same entry is a no-op.
	assert.False(t, a.Remove("2"))
	assert.Equal(t, 1, a.Count())
}

func TestViewState_Replace(t *testing.T) {
	v := NewViewState()
	v.Fail()

	v.Replace(Catalog{
		{Name: "Chess Club", MaxParticipants: 12, Participants: []string{"michael@mergington.edu", "daniel@mergington.edu"}},
		{Name: "Art Club", MaxParticipants: 3},
	}, sequentialIDs())

	assert.True(t, v.Loaded)
	assert.False(t, v.LoadFailed)
	require.Len(t, v.Activities, 2)
	assert.Equal(t, "Chess Club", v.Activities[0].Name)
	assert.Equal(t, []Participant{
		{EntryID: "entry-1", Email: "michael@mergington.edu"},
		{EntryID: "entry-2", Email: "daniel@mergington.edu"},
	}, v.Activities[0].Participants)
	assert.Empty(t, v.Activities[1].Participants)
	assert.Equal(t, 10, v.Activities[0].SpotsLeft())
}

func TestViewState_RemoveEntry(t *testing.T) {
	v := NewViewState()
	v.Replace(Catalog{
		{Name: "A", MaxParticipants: 2, Participants: []string{"a@x.com"}},
		{Name: "B", MaxParticipants: 2, Participants: []string{"a@x.com"}},
	}, sequentialIDs())

	card := v.RemoveEntry("entry-2")
	require.NotNil(t, card)
	assert.Equal(t, "B", card.Name)
	assert.Equal(t, 1, v.Find("A").Count())
	assert.Equal(t, 0, v.Find("B").Count())

	assert.Nil(t, v.RemoveEntry("entry-2"))
	assert.Nil(t, v.Find("C"))
}

func TestViewState_Fail(t *testing.T) {
	v := NewViewState()
	v.Replace(Catalog{{Name: "A", MaxParticipants: 1}}, sequentialIDs())

	v.Fail()

	assert.Empty(t, v.Activities)
	assert.True(t, v.LoadFailed)
}
