// Package domain holds the types shared by the store and the planning pipeline.
package domain

// Subject is a catalog entry. MaxQuestions is the number of questions the
// subject has in its exam section; zero when unknown.
type Subject struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ExamKind     string `json:"exam_kind,omitempty"`
	MaxQuestions int    `json:"max_questions,omitempty"`
}

// SubjectNames returns the names in catalog order.
func SubjectNames(subjects []Subject) []string {
	names := make([]string, len(subjects))
	for i, s := range subjects {
		names[i] = s.Name
	}
	return names
}
