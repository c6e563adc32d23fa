package gbif

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/mkoziy/gbif-sync/internal/models"
	"github.com/mkoziy/gbif-sync/internal/syncerr"
)

const (
	archiveProtocol = "DwCA"
	uniqueKeyTerm   = "gbifID"
	resourceStatus  = "dataAvailable"
	provenance      = "Published dataset"
)

// Defaults for MapOptions; the geometry is a bounding box around Vermont.
const (
	DefaultPortalURL = "https://www.gbif.org"
	DefaultRegion    = "Vermont"
	DefaultGeometry  = "POLYGON((-73.4377 42.7269,-71.4650 42.7269,-71.4650 45.0166,-73.4377 45.0166,-73.4377 42.7269))"
)

// MapOptions carries the deployment-specific inputs of the mapping.
type MapOptions struct {
	ArchiveBaseURL string
	ContentTag     string
	Region         string
	Geometry       string
	PortalURL      string
}

// DefaultMapOptions returns options for the Vermont deployment.
func DefaultMapOptions(archiveBaseURL string) MapOptions {
	return MapOptions{
		ArchiveBaseURL: archiveBaseURL,
		ContentTag:     models.ContentGBIFImport,
		Region:         DefaultRegion,
		Geometry:       DefaultGeometry,
		PortalURL:      DefaultPortalURL,
	}
}

// MapToDataResource converts a registry dataset into a catalog payload.
// existing is the catalog's current record for the key, or nil. Its uid is
// never copied; callers pass it to Update separately.
func MapToDataResource(ds Dataset, existing *models.DataResource, opts MapOptions) (*models.DataResource, error) {
	if ds.Key == "" {
		return nil, fmt.Errorf("dataset has no key: %w", syncerr.ErrMalformedInput)
	}
	if len(ds.Contacts) == 0 {
		return nil, fmt.Errorf("dataset %s has no contacts: %w", ds.Key, syncerr.ErrMalformedInput)
	}
	contact := ds.Contacts[0]
	begin, end := temporalBounds(ds.TemporalCoverages)

	r := &models.DataResource{
		Name:            ds.Title,
		GUID:            ds.Key,
		GBIFRegistryKey: ds.Key,
		ResourceType:    ResourceTypeFor(ds.Type),
		ContentTypes:    ContentTypesFor(ds.Type, opts.ContentTag),
		Address: models.Address{
			Street:   strings.Join(contact.Address, ", "),
			City:     contact.City,
			State:    contact.Province,
			Postcode: contact.PostalCode,
			Country:  contact.Country,
		},
		Phone:               first(contact.Phone),
		Email:               first(contact.Email),
		PubShortDescription: ds.Title,
		PubDescription:      ds.Description,
		TechDescription:     techDescription(ds, opts),
		WebsiteURL:          ds.Homepage,
		Rights:              ds.License,
		Citation:            ds.Citation.Text,
		DOI:                 ds.DOI,
		BeginDate:           begin,
		EndDate:             end,
		HubMembership:       []json.RawMessage{},
		ConnectionParameters: models.ConnectionParameters{
			Protocol:          archiveProtocol,
			URL:               ArchiveURL(opts.ArchiveBaseURL, ds.Key),
			TermsForUniqueKey: []string{uniqueKeyTerm},
		},
		GBIFArchiveURL: firstEndpointURL(ds.Endpoints),
		Status:         resourceStatus,
		Provenance:     provenance,
		GBIFDataset:    true,
	}

	if existing != nil {
		r.Acronym = existing.Acronym
		r.NetworkMembership = existing.NetworkMembership
		if existing.HubMembership != nil {
			r.HubMembership = existing.HubMembership
		}
	}
	return r, nil
}

// Mapper binds opts into a mapping function for the syncer.
func Mapper(opts MapOptions) func(Dataset, *models.DataResource) (*models.DataResource, error) {
	return func(ds Dataset, existing *models.DataResource) (*models.DataResource, error) {
		return MapToDataResource(ds, existing, opts)
	}
}

// ResourceTypeFor maps a dataset kind to a catalog resource type.
func ResourceTypeFor(t models.DatasetType) models.ResourceType {
	if t == models.DatasetChecklist {
		return models.ResourceSpeciesList
	}
	return models.ResourceRecords
}

// ContentTypesFor returns baseTag plus at most one tag for the dataset kind.
func ContentTypesFor(t models.DatasetType, baseTag string) []string {
	if baseTag == "" {
		baseTag = models.ContentGBIFImport
	}
	tags := []string{baseTag}
	switch t {
	case models.DatasetOccurrence, models.DatasetSamplingEvent:
		tags = append(tags, models.ContentPointOccurrenceData)
	case models.DatasetChecklist:
		tags = append(tags, models.ContentSpeciesList)
	}
	return tags
}

// ArchiveURL is where the catalog harvests the dataset's split archive.
func ArchiveURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/gbif-split/" + key + ".zip"
}

// SearchURL links to the dataset's occurrences inside geometry on the portal.
func SearchURL(portal, key, geometry string) string {
	if portal == "" {
		portal = DefaultPortalURL
	}
	q := url.Values{}
	q.Set("dataset_key", key)
	if geometry != "" {
		q.Set("geometry", geometry)
	}
	return strings.TrimSuffix(portal, "/") + "/occurrence/search?" + q.Encode()
}

func techDescription(ds Dataset, opts MapOptions) string {
	region := opts.Region
	if region == "" {
		region = DefaultRegion
	}
	geometry := opts.Geometry
	if geometry == "" {
		geometry = DefaultGeometry
	}
	search := SearchURL(opts.PortalURL, ds.Key, geometry)
	return fmt.Sprintf(
		`<p>%s</p><p>Imported from GBIF. Only records located in %s are included. <a href="%s">View these records on GBIF</a>.</p>`,
		html.EscapeString(ds.Title), html.EscapeString(region), html.EscapeString(search),
	)
}

// temporalBounds returns the first coverage's bounds; missing or blank
// bounds are nil, never "".
func temporalBounds(coverages []TemporalCoverage) (*string, *string) {
	if len(coverages) == 0 {
		return nil, nil
	}
	return nonBlank(coverages[0].Start), nonBlank(coverages[0].End)
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func firstEndpointURL(endpoints []Endpoint) string {
	if len(endpoints) == 0 {
		return ""
	}
	return endpoints[0].URL
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
