package domain

// Activity is one entry of the GET /activities response. Name is the key of
// the entry in the response object.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Catalog is the full activity map in the order the API listed it.
type Catalog []Activity

// Names returns the activity names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, a := range c {
		names = append(names, a.Name)
	}
	return names
}

// MessageResponse is the 2xx body of the signup and unregister endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// DetailResponse is the error body of the activities API.
type DetailResponse struct {
	Detail string `json:"detail"`
}
