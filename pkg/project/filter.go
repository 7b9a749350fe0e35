package project

import "github.com/matzehuels/collage/pkg/collage"

// Filter returns the projects visible under c, in document order.
// CategoryAll returns every project.
func (d *Document) Filter(c Category) []Project {
	if c == CategoryAll {
		return d.Projects
	}
	var out []Project
	for _, p := range d.Projects {
		if p.Category == c {
			out = append(out, p)
		}
	}
	return out
}

// ImageRefs flattens the images of the projects visible under c into collage
// items, each tagged with its project id.
func (d *Document) ImageRefs(c Category) []collage.ImageRef {
	var refs []collage.ImageRef
	for _, p := range d.Filter(c) {
		for _, img := range p.Images {
			refs = append(refs, collage.ImageRef{Path: img, GroupID: p.ID})
		}
	}
	return refs
}

// Find returns the project with the given id.
func (d *Document) Find(id string) (Project, bool) {
	for _, p := range d.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// IndexOf returns the position of id among the projects visible under c, or
// -1.
func (d *Document) IndexOf(c Category, id string) int {
	for i, p := range d.Filter(c) {
		if p.ID == id {
			return i
		}
	}
	return -1
}
