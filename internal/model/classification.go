package model

// Tier is the matching stage that produced a classification.
type Tier string

// Classification tiers, in evaluation order.
const (
	TierExact    Tier = "EXACT"
	TierSemantic Tier = "SEMANTIC"
	TierFallback Tier = "FALLBACK"
)

// ClassificationRule describes one category and the evidence that selects it.
type ClassificationRule struct {
	Category       string   `json:"category" yaml:"-"`
	Description    string   `json:"description" yaml:"description"`
	Keywords       []string `json:"keywords" yaml:"keywords"`
	TargetPatterns []string `json:"target_patterns" yaml:"target_patterns"`
	FileTypes      []string `json:"file_types" yaml:"file_types"`
	Priority       int      `json:"priority" yaml:"priority"`
}

// FolderName returns the top-level folder used for the category.
func (r ClassificationRule) FolderName() string {
	if len(r.TargetPatterns) > 0 && r.TargetPatterns[0] != "" {
		return r.TargetPatterns[0]
	}
	return r.Category
}

// ClassificationResult is the outcome of classifying one document.
type ClassificationResult struct {
	Breakdown  map[string]float64 `json:"score_breakdown,omitempty"`
	Category   string             `json:"category"`
	Tier       Tier               `json:"tier"`
	Confidence float64            `json:"confidence"`
	// Hinted is set when the category came from the labeler rather than the rule scan.
	Hinted bool `json:"hinted,omitempty"`
}

// LabelerHint is what the semantic labeler suggested for a document.
type LabelerHint struct {
	Subject    string  `json:"subject"`
	Category   string  `json:"suggested_folder"`
	Reasoning  string  `json:"reasoning"`
	Project    string  `json:"project_name,omitempty"`
	Date       string  `json:"date,omitempty"`
	Confidence float64 `json:"confidence"`
}
