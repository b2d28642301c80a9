package domain

// DrugResult is a single match from the upstream drug label API, flattened
// to the first entry of each field the frontend renders.
type DrugResult struct {
	BrandName   string `json:"brandName"`
	GenericName string `json:"genericName"`
	Purpose     string `json:"purpose,omitempty"`
	Indications string `json:"indications,omitempty"`
	Warnings    string `json:"warnings,omitempty"`
	SideEffects string `json:"sideEffects,omitempty"`
	Dosage      string `json:"dosage,omitempty"`
	Route       string `json:"route,omitempty"`
	Rxcui       string `json:"rxcui,omitempty"`
}
