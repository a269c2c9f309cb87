package models

import (
	"strings"
	"time"
)

// Project categories. "first" lists a project under completed work and
// "second" under running work.
const (
	CategoryComplete = "first"
	CategoryRunning  = "second"
)

// ValidCategory reports whether c is one of the two project categories.
func ValidCategory(c string) bool {
	return c == CategoryComplete || c == CategoryRunning
}

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Folder      string    `json:"folder"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	Client      string    `json:"client"`
	Duration    string    `json:"duration"`
	Area        string    `json:"area"`
	Type        string    `json:"type"`
	MainImage   string    `json:"mainImage"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProjectFields are the values accepted when a project is created.
type ProjectFields struct {
	Name        string
	Description string
	Category    string
	Folder      string
	Location    string
	Status      string
	Client      string
	Duration    string
	Area        string
	Type        string
}

// Project builds a bare project record from the submitted fields.
func (f ProjectFields) Project() Project {
	return Project{
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		Category:    strings.TrimSpace(f.Category),
		Folder:      strings.TrimSpace(f.Folder),
		Location:    f.Location,
		Status:      f.Status,
		Client:      f.Client,
		Duration:    f.Duration,
		Area:        f.Area,
		Type:        f.Type,
	}
}

// ProjectUpdate carries the text attributes of a project update. A nil field
// is left untouched. Name, Description and Category also ignore empty values.
type ProjectUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Location    *string `json:"location,omitempty"`
	Status      *string `json:"status,omitempty"`
	Client      *string `json:"client,omitempty"`
	Duration    *string `json:"duration,omitempty"`
	Area        *string `json:"area,omitempty"`
	Type        *string `json:"type,omitempty"`
}

// Apply copies the update onto p. Images and folder are never changed here.
func (u ProjectUpdate) Apply(p *Project) {
	keepIfEmpty := func(dst *string, v *string) {
		if v != nil && *v != "" {
			*dst = *v
		}
	}
	replace := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}

	keepIfEmpty(&p.Name, u.Name)
	keepIfEmpty(&p.Description, u.Description)
	keepIfEmpty(&p.Category, u.Category)
	replace(&p.Location, u.Location)
	replace(&p.Status, u.Status)
	replace(&p.Client, u.Client)
	replace(&p.Duration, u.Duration)
	replace(&p.Area, u.Area)
	replace(&p.Type, u.Type)
}
