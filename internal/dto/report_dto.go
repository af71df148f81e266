package dto

// AssignmentReport is the typed aggregate built by explicit reduction over
// evaluated submissions of one assignment.
type AssignmentReport struct {
	AssignmentID     uint    `json:"assignment_id"`
	Title            string  `json:"title"`
	MaxMarks         float64 `json:"max_marks"`
	SubmittedCount   int     `json:"submitted_count"`
	EvaluatedCount   int     `json:"evaluated_count"`
	MeanMarks        float64 `json:"mean_marks"`
	HighestMarks     float64 `json:"highest_marks"`
	LowestMarks      float64 `json:"lowest_marks"`
	PlagiarismFlags  int     `json:"plagiarism_flags"`
	PlagiarismCutoff float64 `json:"plagiarism_cutoff"`
}
