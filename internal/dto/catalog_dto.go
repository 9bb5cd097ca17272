package dto

type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
	Default    string   `json:"default"`
}

type DocumentResponse struct {
	Name         string `json:"name"`
	Size         string `json:"size,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
}

type DocumentURLResponse struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}
