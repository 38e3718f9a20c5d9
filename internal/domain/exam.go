package domain

import "time"

type SubjectScore struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// ExamResult is one mock exam taken by a student.
type ExamResult struct {
	ID       int64                   `json:"id"`
	UserID   string                  `json:"user_id"`
	Kind     string                  `json:"kind"`
	TakenAt  time.Time               `json:"taken_at"`
	Correct  int                     `json:"correct"`
	Wrong    int                     `json:"wrong"`
	Minutes  int                     `json:"minutes"`
	Subjects map[string]SubjectScore `json:"subjects,omitempty"`
}

// Net is correct answers minus a quarter of the wrong ones.
func Net(correct, wrong int) float64 {
	return float64(correct) - float64(wrong)/4
}

func (e ExamResult) Net() float64 { return Net(e.Correct, e.Wrong) }
