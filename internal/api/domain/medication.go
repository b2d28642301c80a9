package domain

import "time"

// Medication is a single entry in a user's medication list. StartDate is a
// calendar date (YYYY-MM-DD), empty when the user never set one.
type Medication struct {
	ID           string    `json:"id"`
	UserID       string    `json:"-"`
	DrugName     string    `json:"drugName"`
	Rxcui        string    `json:"rxcui,omitempty"`
	Dosage       string    `json:"dosage,omitempty"`
	Frequency    string    `json:"frequency,omitempty"`
	StartDate    string    `json:"startDate,omitempty"`
	Instructions string    `json:"instructions,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
