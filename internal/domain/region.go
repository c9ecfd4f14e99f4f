package domain

// Region groups curated dishes by cuisine, e.g. "Mediterranean".
type Region struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}
