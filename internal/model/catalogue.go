package model

// Content catalogue types. The catalogue is read-only, externally supplied
// content: the progress engine only ever uses its identifiers as map keys.

type CatalogueSlide struct {
	ID    string `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Type  string `yaml:"type" json:"type"` // intro, content, summary
}

type CatalogueQuiz struct {
	ID     string `yaml:"id" json:"id"`
	Points int    `yaml:"points" json:"points"`
}

type CatalogueChallenge struct {
	ID     string `yaml:"id" json:"id"`
	Points int    `yaml:"points" json:"points"`
	Items  int    `yaml:"items" json:"items"`
}

type CatalogueModule struct {
	ID              string               `yaml:"id" json:"id"`
	Title           string               `yaml:"title" json:"title"`
	Subtitle        string               `yaml:"subtitle" json:"subtitle"`
	Icon            string               `yaml:"icon" json:"icon"`
	Duration        string               `yaml:"duration" json:"duration"`
	Order           int                  `yaml:"order" json:"order"`
	PointsAvailable int                  `yaml:"points_available" json:"pointsAvailable"`
	PassThreshold   float64              `yaml:"pass_threshold" json:"passThreshold"`
	Slides          []CatalogueSlide     `yaml:"slides" json:"slides"`
	Quizzes         []CatalogueQuiz      `yaml:"quizzes" json:"quizzes"`
	Challenges      []CatalogueChallenge `yaml:"challenges" json:"challenges"`
}

type CatalogueBadge struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	Description string `yaml:"description" json:"description"`
	Icon        string `yaml:"icon" json:"icon"`
	ModuleID    string `yaml:"module_id" json:"moduleId"`
}
