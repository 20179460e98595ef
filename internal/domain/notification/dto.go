package notification

// NotifyRequest is the body of the admin broadcast endpoint.
type NotifyRequest struct {
	UserIDs []int64 `json:"userIds" validate:"required,min=1,max=500,dive,gt=0"`
	Title   string  `json:"title" validate:"required,max=200"`
	Message string  `json:"message" validate:"required"`
	Type    Kind    `json:"type"`
	Link    string  `json:"link" validate:"omitempty,max=500"`
}

func (r NotifyRequest) Payloads() []Payload {
	out := make([]Payload, 0, len(r.UserIDs))
	for _, id := range r.UserIDs {
		out = append(out, Payload{UserID: id, Title: r.Title, Message: r.Message, Kind: r.Type, Link: r.Link})
	}
	return out
}
