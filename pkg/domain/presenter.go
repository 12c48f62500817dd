package domain

import "strconv"

// Presenter is the human consultant the conversation is conducted on behalf of.
type Presenter struct {
	Name  string
	Years int
	Bio   string
}

// Vars exposes the presenter to flow templates as presenter.name, presenter.years
// and presenter.bio.
func (p Presenter) Vars() map[string]string {
	vars := map[string]string{
		"presenter.name": p.Name,
		"presenter.bio":  p.Bio,
	}
	if p.Years > 0 {
		vars["presenter.years"] = strconv.Itoa(p.Years)
	}
	return vars
}
