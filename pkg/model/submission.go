package model

import "time"

// ValueDetail points at stored content backing a submitted value.
type ValueDetail struct {
	Location    string `json:"location"`
	ContentType string `json:"contentType,omitempty"`
}

// FormValue is one named submitted value list. Repeated entries with the same
// name are aggregated into a single FormValue in arrival order.
type FormValue struct {
	Name          string       `json:"name"`
	Values        []string     `json:"values"`
	Detail        *ValueDetail `json:"detail,omitempty"`
	UserReference bool         `json:"userReference,omitempty"`
}

// Value returns the first value, or the empty string.
func (v FormValue) Value() string {
	if len(v.Values) == 0 {
		return ""
	}
	return v.Values[0]
}

// Attachment is submitted content that is not bound to a form field.
type Attachment struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Location    string `json:"location,omitempty"`
	Link        string `json:"link,omitempty"`
	UserID      string `json:"userId,omitempty"`
	ProcessKey  string `json:"processKey,omitempty"`
}

// Submission is the durable record produced from one ingested form post.
type Submission struct {
	ID             string       `json:"id"`
	ProcessKey     string       `json:"processKey"`
	RequestID      string       `json:"requestId,omitempty"`
	TaskID         string       `json:"taskId,omitempty"`
	SubmittedAt    time.Time    `json:"submittedAt"`
	SubmitterID    string       `json:"submitterId,omitempty"`
	FormData       []FormValue  `json:"formData"`
	RestrictedData []FormValue  `json:"-"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	Action         *ActionType  `json:"action,omitempty"`
}

// FormValueMap indexes FormData by name.
func (s *Submission) FormValueMap() map[string]FormValue {
	out := make(map[string]FormValue, len(s.FormData))
	for _, value := range s.FormData {
		if value.Name == "" {
			continue
		}
		out[value.Name] = value
	}
	return out
}

// ValueMap converts FormData into render-ready values so a re-rendered
// screen shows what was submitted.
func (s *Submission) ValueMap() map[string][]Value {
	out := make(map[string][]Value, len(s.FormData))
	for _, formValue := range s.FormData {
		if formValue.Detail != nil {
			for _, name := range formValue.Values {
				out[formValue.Name] = append(out[formValue.Name], File{
					Name:        name,
					Location:    formValue.Detail.Location,
					ContentType: formValue.Detail.ContentType,
				})
			}
			continue
		}
		out[formValue.Name] = append(out[formValue.Name], Texts(formValue.Values...)...)
	}
	return out
}
