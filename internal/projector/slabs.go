package projector

import (
	"fmt"
	"strings"

	"jobsync/internal/model"
)

// Slabs are "<url-path>::<display-text>" strings used to build facet links.

func CountrySlab(job model.JobRecord) string {
	return fmt.Sprintf("%s/jobs::%s", strings.ToLower(job.CountryShort), job.Country)
}

// StateSlab returns nil when the state has no slug.
func StateSlab(job model.JobRecord) *string {
	stateSlug := Slug(job.State)
	if stateSlug == "" {
		return nil
	}
	s := fmt.Sprintf("%s/%s/jobs::%s", stateSlug, strings.ToLower(job.CountryShort), job.State)
	return &s
}

// CitySlab returns nil when the city has no slug. location is the
// composite location of the job.
func CitySlab(job model.JobRecord, location string) *string {
	citySlug := Slug(job.City)
	if citySlug == "" {
		return nil
	}
	s := fmt.Sprintf("%s/%s/%s/jobs::%s", citySlug, Slug(job.State), strings.ToLower(job.CountryShort), location)
	return &s
}

// TitleSlab returns nil when the title slug is empty or "none".
func TitleSlab(title string) *string {
	titleSlug := Slug(title)
	if titleSlug == "" || titleSlug == "none" {
		return nil
	}
	s := fmt.Sprintf("%s/jobs-in::%s", strings.Trim(titleSlug, "-"), title)
	return &s
}

func CompanySlab(company string) string {
	return fmt.Sprintf("%s/careers::%s", Slug(company), company)
}

func MocSlab(e model.TaxonomyEntry) string {
	return fmt.Sprintf("%s/%s/%s/vet-jobs::%s - %s", Slug(e.Title), e.Code, e.Branch, e.Code, e.Title)
}

// FullLoc joins the geographic fields as "city::X@@state::X@@location::X@@country::X".
func FullLoc(job model.JobRecord, location string) string {
	parts := []string{
		"city::" + job.City,
		"state::" + job.State,
		"location::" + location,
		"country::" + job.Country,
	}
	return strings.Join(parts, "@@")
}
