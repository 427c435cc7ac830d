package filter

import "github.com/maltedev/course-catalog-scraper/internal/models"

// SubjectGroup pairs a catalog subject code with the heading it is published under.
type SubjectGroup struct {
	Subject string `json:"subject"`
	Heading string `json:"heading"`
}

type Group struct {
	SubjectGroup
	Courses []models.Course `json:"courses"`
}

func DefaultGroups() []SubjectGroup {
	return []SubjectGroup{
		{Subject: "GEOGRAPH", Heading: "Geography"},
		{Subject: "GEOLOGY", Heading: "Geology"},
		{Subject: "GEO-SCI", Heading: "the Geosciences"},
	}
}

// BySubject returns the courses whose subject equals subject exactly, in catalog order.
func BySubject(catalog *models.Catalog, subject string) []models.Course {
	courses := []models.Course{}
	for _, course := range catalog.Courses() {
		if course.Subject == subject {
			courses = append(courses, course)
		}
	}
	return courses
}

// Partition builds one group per entry of groups, in that order. Courses matching no group are left out.
func Partition(catalog *models.Catalog, groups []SubjectGroup) []Group {
	out := make([]Group, 0, len(groups))
	for _, g := range groups {
		out = append(out, Group{
			SubjectGroup: g,
			Courses:      BySubject(catalog, g.Subject),
		})
	}
	return out
}
