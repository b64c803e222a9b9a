package models

// Row is one record returned by the analytics executor, keyed by column name.
type Row map[string]any

// Answer is the response envelope for an analytics question.
type Answer struct {
	Query       string      `json:"query"`
	Description string      `json:"description"`
	Params      QueryParams `json:"params"`
	Results     []Row       `json:"results"`
	Count       int         `json:"count"`
}

// Suggestion is an example question offered to dashboard users.
type Suggestion struct {
	Text     string `yaml:"text" json:"text"`
	Category string `yaml:"category" json:"category"`
	Icon     string `yaml:"icon" json:"icon"`
}

// TemplateInfo describes one analysis template and its defaults.
type TemplateInfo struct {
	AnalysisType AnalysisType   `json:"analysisType"`
	Description  string         `json:"description"`
	Defaults     map[string]int `json:"defaults"`
}
