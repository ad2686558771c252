package schema

// MethodInfo describes one drift method for the metrics command.
type MethodInfo struct {
	Name      string  `json:"name"`
	Purpose   string  `json:"purpose"`
	Range     string  `json:"range"`
	Verdict   string  `json:"verdict"`
	Threshold float64 `json:"default_threshold"`
}

// MethodsRenderModel is the full render model for the metrics command.
type MethodsRenderModel struct {
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Methods        []MethodInfo      `json:"methods"`
	FeatureNaming  map[string]string `json:"feature_naming"`
	ShareThreshold float64           `json:"default_share_threshold"`
}
