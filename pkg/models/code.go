package models

// GeneratedCode is the output of the Code Generation stage.
type GeneratedCode struct {
	SOPID      string            `json:"sop_id"`
	Framework  Framework         `json:"framework"`
	EntryPoint string            `json:"entry_point"`
	Files      map[string]string `json:"files"`
	TotalLines int               `json:"total_lines"`
}
