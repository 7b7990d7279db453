package models

// Question is a single quiz item. Image holds a data URI and is only
// rendered for image questions.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Question      string       `json:"question"`
	CorrectAnswer string       `json:"correctAnswer"`
	Image         string       `json:"image,omitempty"`
}

func (q Question) HasImage() bool {
	return q.Type == QuestionTypeImage && q.Image != ""
}

// Collection is the ordered set of questions persisted as one value.
type Collection []Question

func (c Collection) IndexOf(id string) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Collection) Find(id string) (Question, bool) {
	if i := c.IndexOf(id); i >= 0 {
		return c[i], true
	}
	return Question{}, false
}

// Replace returns a copy with the record of the same id swapped in place.
func (c Collection) Replace(q Question) (Collection, error) {
	i := c.IndexOf(q.ID)
	if i < 0 {
		return c, ErrQuestionNotFound
	}
	out := c.Clone()
	out[i] = q
	return out, nil
}

func (c Collection) Append(q Question) Collection {
	out := make(Collection, len(c), len(c)+1)
	copy(out, c)
	return append(out, q)
}

func (c Collection) Without(id string) (Collection, error) {
	i := c.IndexOf(id)
	if i < 0 {
		return c, ErrQuestionNotFound
	}
	out := make(Collection, 0, len(c)-1)
	out = append(out, c[:i]...)
	return append(out, c[i+1:]...), nil
}

func (c Collection) Clone() Collection {
	if c == nil {
		return Collection{}
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}
