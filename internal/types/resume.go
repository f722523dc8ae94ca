// Package types provides type definitions for structured data used throughout the resume builder.
package types

import "encoding/json"

// ResumeDocument is the structured resume produced by the editor store.
// The scorer only ever reads it; missing arrays decode as nil and are treated as empty.
type ResumeDocument struct {
	PersonalInfo   PersonalInfo      `json:"personalInfo"`
	Summary        string            `json:"summary"`
	Experience     []ExperienceEntry `json:"experience"`
	Education      []EducationEntry  `json:"education"`
	Skills         []SkillGroup      `json:"skills"`
	Certifications []json.RawMessage `json:"certifications,omitempty"`
	Projects       []json.RawMessage `json:"projects,omitempty"`
	Languages      []json.RawMessage `json:"languages,omitempty"`
}

// PersonalInfo holds the contact block. All fields are optional.
type PersonalInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	Links    string `json:"links,omitempty"`
}

// ExperienceEntry is one position in the work history.
type ExperienceEntry struct {
	Company   string   `json:"company"`
	Position  string   `json:"position"`
	Location  string   `json:"location,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Current   bool     `json:"current,omitempty"`
	Bullets   []string `json:"bullets"`
}

// EducationEntry is one degree or program.
type EducationEntry struct {
	School    string `json:"school"`
	Degree    string `json:"degree,omitempty"`
	Field     string `json:"field,omitempty"`
	Location  string `json:"location,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// SkillGroup is a named list of skills (e.g. "Languages": ["Go", "SQL"]).
type SkillGroup struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// AllBullets flattens the bullets of every experience entry in document order.
func (d *ResumeDocument) AllBullets() []string {
	var bullets []string
	for _, exp := range d.Experience {
		bullets = append(bullets, exp.Bullets...)
	}
	return bullets
}

// AllSkillItems flattens the items of every skill group.
func (d *ResumeDocument) AllSkillItems() []string {
	var items []string
	for _, group := range d.Skills {
		items = append(items, group.Items...)
	}
	return items
}
