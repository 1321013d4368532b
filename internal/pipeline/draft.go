package pipeline

import (
	"strings"

	"github.com/foundry-app/foundry-go/internal/domain"
)

// Collection names one of the two item lists a refinement run holds.
type Collection string

const (
	CollectionVariations Collection = "variations"
	CollectionCombined   Collection = "combined"
)

// EditBuffer holds in-progress edits to an item. Canonical fields only
// change when the buffer is explicitly committed; cancel discards it.
type EditBuffer struct {
	Title       string
	Description string
}

const (
	EditFieldTitle       = "title"
	EditFieldDescription = "description"
)

// ToggleSelect flips an item's selection. Variations multi-select; combined
// concepts are mutually exclusive, and clearing the others happens under the
// same lock so no reader can observe two selected concepts.
func (p *Pipeline) ToggleSelect(col Collection, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch col {
	case CollectionVariations:
		v := p.findVariation(id)
		if v == nil {
			return domain.NewValidationError("unknown variation %q", id)
		}
		v.Selected = !v.Selected
		return nil
	case CollectionCombined:
		c := p.findConcept(id)
		if c == nil {
			return domain.NewValidationError("unknown concept %q", id)
		}
		if c.Selected {
			c.Selected = false
			return nil
		}
		for i := range p.combined {
			p.combined[i].Selected = false
		}
		c.Selected = true
		return nil
	default:
		return domain.NewValidationError("unknown collection %q", col)
	}
}

// BeginEdit marks an item as editing and seeds its buffer from the
// canonical fields. A second BeginEdit while editing is a no-op, so an open
// buffer is never clobbered.
func (p *Pipeline) BeginEdit(col Collection, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	editing, title, description, err := p.itemEditState(col, id)
	if err != nil {
		return err
	}
	if editing {
		return nil
	}
	p.setEditing(col, id, true)
	p.buffers[id] = EditBuffer{Title: title, Description: description}
	return nil
}

// UpdateEditBuffer mutates only the buffer. Writes to an item that is not
// in edit mode (or to an unknown field) are dropped silently; callers are
// expected to check state first, and the operation stays total.
func (p *Pipeline) UpdateEditBuffer(col Collection, id, field, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	editing, _, _, err := p.itemEditState(col, id)
	if err != nil {
		return err
	}
	if !editing {
		return nil
	}
	buf := p.buffers[id]
	switch strings.ToLower(strings.TrimSpace(field)) {
	case EditFieldTitle:
		buf.Title = value
	case EditFieldDescription:
		buf.Description = value
	default:
		return nil
	}
	p.buffers[id] = buf
	return nil
}

// CommitEdit copies the buffer into the canonical fields and leaves edit
// mode. Committing an item that is not editing is a no-op.
func (p *Pipeline) CommitEdit(col Collection, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	editing, _, _, err := p.itemEditState(col, id)
	if err != nil {
		return err
	}
	if !editing {
		return nil
	}
	buf := p.buffers[id]
	switch col {
	case CollectionVariations:
		v := p.findVariation(id)
		v.Title = buf.Title
		v.Description = buf.Description
		v.Editing = false
	case CollectionCombined:
		c := p.findConcept(id)
		c.Title = buf.Title
		c.Description = buf.Description
		c.Editing = false
	}
	delete(p.buffers, id)
	return nil
}

// CancelEdit discards the buffer and leaves edit mode; canonical fields are
// untouched.
func (p *Pipeline) CancelEdit(col Collection, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	editing, _, _, err := p.itemEditState(col, id)
	if err != nil {
		return err
	}
	if !editing {
		return nil
	}
	p.setEditing(col, id, false)
	delete(p.buffers, id)
	return nil
}

// UpdateLikedAspects records what the founder liked about a variation. There
// is no precondition on the variation being selected; the note simply only
// feeds the combination call when it is.
func (p *Pipeline) UpdateLikedAspects(id, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	v := p.findVariation(id)
	if v == nil {
		return domain.NewValidationError("unknown variation %q", id)
	}
	v.LikedAspects = text
	return nil
}

func (p *Pipeline) findVariation(id string) *domain.Variation {
	for i := range p.variations {
		if p.variations[i].ID == id {
			return &p.variations[i]
		}
	}
	return nil
}

func (p *Pipeline) findConcept(id string) *domain.CombinedConcept {
	for i := range p.combined {
		if p.combined[i].ID == id {
			return &p.combined[i]
		}
	}
	return nil
}

func (p *Pipeline) itemEditState(col Collection, id string) (editing bool, title, description string, err error) {
	switch col {
	case CollectionVariations:
		v := p.findVariation(id)
		if v == nil {
			return false, "", "", domain.NewValidationError("unknown variation %q", id)
		}
		return v.Editing, v.Title, v.Description, nil
	case CollectionCombined:
		c := p.findConcept(id)
		if c == nil {
			return false, "", "", domain.NewValidationError("unknown concept %q", id)
		}
		return c.Editing, c.Title, c.Description, nil
	default:
		return false, "", "", domain.NewValidationError("unknown collection %q", col)
	}
}

func (p *Pipeline) setEditing(col Collection, id string, editing bool) {
	switch col {
	case CollectionVariations:
		if v := p.findVariation(id); v != nil {
			v.Editing = editing
		}
	case CollectionCombined:
		if c := p.findConcept(id); c != nil {
			c.Editing = editing
		}
	}
}

func (p *Pipeline) selectedVariationsLocked() []domain.Variation {
	selected := make([]domain.Variation, 0, len(p.variations))
	for _, v := range p.variations {
		if v.Selected {
			selected = append(selected, v)
		}
	}
	return selected
}
