package model

// CompletionRecord captures a learner finishing the full training, with the
// per-game scores instructors review. Upserted by access ID so a retake
// replaces the earlier scores instead of duplicating the row.
type CompletionRecord struct {
	BaseModel
	AccessID          string `gorm:"size:64;uniqueIndex;not null" json:"uniqueId"`
	DisplayName       string `gorm:"size:100;not null" json:"displayName"`
	CompletionDate    string `gorm:"size:40" json:"completionDate"`
	PhishingSimulator int    `json:"phishingSimulator"`
	PasswordStrength  int    `json:"passwordStrength"`
	SecurityQuiz      int    `json:"securityQuiz"`
	Overall           int    `json:"overall"`
}

func (CompletionRecord) TableName() string {
	return "completion_records"
}
