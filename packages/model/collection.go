package model

// Collection is one node of the collection arena. Children are referenced by
// id; a collection never owns another collection value.
type Collection struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	ParentID    string       `json:"parentId,omitempty"`
	Collections []string     `json:"collections,omitempty"`
	Auth        *RequestAuth `json:"auth,omitempty"`
	CreatedAt   int64        `json:"createdAt"`
	UpdatedAt   int64        `json:"updatedAt"`
}

// SavedRequest is a persisted request, optionally filed under a collection.
type SavedRequest struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Method       string       `json:"method"`
	URL          string       `json:"url"`
	Body         string       `json:"body,omitempty"`
	Headers      []Header     `json:"headers,omitempty"`
	Auth         *RequestAuth `json:"auth,omitempty"`
	TestScript   string       `json:"testScript,omitempty"`
	CollectionID string       `json:"collectionId,omitempty"`
	CreatedAt    int64        `json:"createdAt"`
	UpdatedAt    int64        `json:"updatedAt"`
}

// Draft returns an editable copy of the saved request.
func (r *SavedRequest) Draft() *DraftRequest {
	return &DraftRequest{
		Method:     r.Method,
		URL:        r.URL,
		Body:       r.Body,
		Headers:    append([]Header(nil), r.Headers...),
		Auth:       r.Auth.Clone(),
		TestScript: r.TestScript,
	}
}
