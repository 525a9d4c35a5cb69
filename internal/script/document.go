// Package script loads check scripts: YAML documents that group data-quality
// checks by feature and entity and resolve into a flat list of check specs.
package script

import "regexp"

// Document is a loaded check script before attribute resolution.
type Document struct {
	File       string
	Connection string
	Owner      string
	Owners     []Owner
	Features   []Feature
	// Entities declared outside any feature.
	Entities []Entity
}

// Owner declares a team or person that checks can be assigned to.
type Owner struct {
	Name    string
	Contact string
}

// Feature groups entities under a shared name, connection and owner.
type Feature struct {
	Name       string
	Connection string
	Owner      string
	Entities   []Entity
	Path       string
	Line       int
}

// Entity names one table (Name) or a family of tables (Match) and the
// checks to run against it.
type Entity struct {
	Name       string
	Match      string
	Pattern    *regexp.Regexp
	Connection string
	Owner      string
	Checks     []Check
	Path       string
	Line       int
}

// Check is a single rule. Every key other than type, connection and owner
// is kept as a parameter.
type Check struct {
	Type       string
	Connection string
	Owner      string
	Parameters map[string]string
	Path       string
	Line       int
}

// Contact returns the contact declared for owner, if any.
func (d *Document) Contact(owner string) (string, bool) {
	for _, o := range d.Owners {
		if o.Name == owner {
			return o.Contact, true
		}
	}
	return "", false
}
