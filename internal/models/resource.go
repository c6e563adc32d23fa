package models

import "encoding/json"

// DataResource is the catalog's data resource record as sent to and
// returned by /ws/dataResource. Fields the catalog rejects as empty strings
// are pointers so they serialize as null.
type DataResource struct {
	UID     string `json:"uid,omitempty"`
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
	GUID    string `json:"guid"`

	GBIFRegistryKey string       `json:"gbifRegistryKey"`
	ResourceType    ResourceType `json:"resourceType"`
	ContentTypes    []string     `json:"contentTypes"`

	Address Address `json:"address"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email"`

	PubShortDescription string `json:"pubShortDescription"`
	PubDescription      string `json:"pubDescription"`
	TechDescription     string `json:"techDescription"`
	WebsiteURL          string `json:"websiteUrl"`

	Rights         string `json:"rights"`
	LicenseType    string `json:"licenseType"`
	LicenseVersion string `json:"licenseVersion"`
	Citation       string `json:"citation"`
	DOI            string `json:"doi"`

	BeginDate    *string `json:"beginDate"`
	EndDate      *string `json:"endDate"`
	DataCurrency *string `json:"dataCurrency"`

	// Curator-maintained; copied through untouched from the catalog.
	NetworkMembership json.RawMessage   `json:"networkMembership"`
	HubMembership     []json.RawMessage `json:"hubMembership"`

	ConnectionParameters ConnectionParameters `json:"connectionParameters"`
	GBIFArchiveURL       string               `json:"gbifArchiveUrl"`

	Status                 string `json:"status"`
	Provenance             string `json:"provenance"`
	GBIFDataset            bool   `json:"gbifDataset"`
	IsShareableWithGBIF    bool   `json:"isShareableWithGBIF"`
	PublicArchiveAvailable bool   `json:"publicArchiveAvailable"`
	HarvestFrequency       int    `json:"harvestFrequency"`
	DownloadLimit          int    `json:"downloadLimit"`
	DataGeneralizations    string `json:"dataGeneralizations"`
	InformationWithheld    string `json:"informationWithheld"`
}

// Address is the postal address block of a data resource.
type Address struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
	Country  string `json:"country"`
}

// ConnectionParameters tells the catalog where to harvest the archive from.
type ConnectionParameters struct {
	Protocol          string   `json:"protocol"`
	URL               string   `json:"url"`
	TermsForUniqueKey []string `json:"termsForUniqueKey"`
}
