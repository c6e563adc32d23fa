package gbif

import "github.com/mkoziy/gbif-sync/internal/models"

// Dataset is the registry's dataset record (GET /v1/dataset/{key}).
type Dataset struct {
	Key                       string             `json:"key"`
	Type                      models.DatasetType `json:"type"`
	Title                     string             `json:"title"`
	Description               string             `json:"description"`
	DOI                       string             `json:"doi"`
	License                   string             `json:"license"`
	Homepage                  string             `json:"homepage"`
	Language                  string             `json:"language"`
	PublishingOrganizationKey string             `json:"publishingOrganizationKey"`
	Modified                  string             `json:"modified"`
	Citation                  Citation           `json:"citation"`
	Contacts                  []Contact          `json:"contacts"`
	TemporalCoverages         []TemporalCoverage `json:"temporalCoverages"`
	Endpoints                 []Endpoint         `json:"endpoints"`
}

// Citation is the preferred citation of a dataset.
type Citation struct {
	Text       string `json:"text"`
	Identifier string `json:"identifier"`
}

// Contact is one person or organization listed on a dataset.
type Contact struct {
	Type         string   `json:"type"`
	Primary      bool     `json:"primary"`
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Organization string   `json:"organization"`
	Position     []string `json:"position"`
	Address      []string `json:"address"`
	City         string   `json:"city"`
	Province     string   `json:"province"`
	PostalCode   string   `json:"postalCode"`
	Country      string   `json:"country"`
	Email        []string `json:"email"`
	Phone        []string `json:"phone"`
}

// TemporalCoverage is a date range; either bound may be missing.
type TemporalCoverage struct {
	Type  string  `json:"@type"`
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// Endpoint is an access point for the dataset's data.
type Endpoint struct {
	Key         int64  `json:"key"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description"`
}
