package models

import "strings"

// CastMember is one actor credit on a movie
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profilePath"`
}

// CrewMember is one crew credit on a movie
type CrewMember struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits holds the cast and crew of a movie
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Director returns the first crew member credited as director
func (c Credits) Director() *CrewMember {
	for i := range c.Crew {
		if strings.EqualFold(c.Crew[i].Job, "director") {
			return &c.Crew[i]
		}
	}
	return nil
}

// Person is an actor or crew member
type Person struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Biography          *string `json:"biography"`
	Gender             int     `json:"gender"`
	Birthday           *string `json:"birthday"`
	Deathday           *string `json:"deathday"`
	PlaceOfBirth       *string `json:"placeOfBirth"`
	KnownForDepartment *string `json:"knownForDepartment"`
	ProfilePath        *string `json:"profilePath"`
}

// GenderLabel maps the TMDB gender code to a display label
func (p Person) GenderLabel() string {
	switch p.Gender {
	case 1:
		return "Female"
	case 2:
		return "Male"
	default:
		return "Not specified"
	}
}
