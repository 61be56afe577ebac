// Package reconcile computes the row changes that turn a form's persisted
// question set into a submitted one.
//
// The submitted list is authoritative: questions whose id matches a
// persisted row are updated, persisted rows missing from the list are
// deleted (their answers go with them), and everything else is created
// under a fresh id. Orders are rewritten to the submitted index.
package reconcile

import "github.com/mbolis/quick-forms/model"

// Plan is the full set of changes for one save. Creates and Updates carry
// their final Order; Deletes lists persisted ids to drop.
type Plan struct {
	Creates []model.Question
	Updates []model.Question
	Deletes []string
}

// Questions returns the resulting question list in submitted order.
func (p Plan) Questions() []model.Question {
	qs := make([]model.Question, len(p.Creates)+len(p.Updates))
	for _, q := range p.Creates {
		qs[q.Order] = q
	}
	for _, q := range p.Updates {
		qs[q.Order] = q
	}
	return qs
}

func (p Plan) Empty() bool {
	return len(p.Creates) == 0 && len(p.Updates) == 0 && len(p.Deletes) == 0
}

// Compute plans the changes for formID. persisted holds the ids currently
// stored for the form; newID mints ids for created questions.
//
// An id that is not persisted for this form, or that repeats an id used
// earlier in desired, is never reused: the question is created under a new
// id so it cannot collide with a row owned by another form.
func Compute(formID string, persisted []string, desired []model.Question, newID func() string) Plan {
	current := make(map[string]bool, len(persisted))
	for _, id := range persisted {
		current[id] = true
	}

	var plan Plan
	kept := make(map[string]bool, len(desired))
	for i, q := range desired {
		q.FormID = formID
		q.Order = i
		if q.ID != "" && current[q.ID] && !kept[q.ID] {
			kept[q.ID] = true
			plan.Updates = append(plan.Updates, q)
			continue
		}
		q.ID = newID()
		plan.Creates = append(plan.Creates, q)
	}

	for _, id := range persisted {
		if !kept[id] {
			plan.Deletes = append(plan.Deletes, id)
		}
	}
	return plan
}
