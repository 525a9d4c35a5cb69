package script

import (
	"errors"
	"maps"

	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// Inheritable attribute names.
const (
	AttrConnection = "connection"
	AttrOwner      = "owner"
)

// scope is one level of the attribute chain: document, feature, entity or
// check. Lookups walk toward the root and stop at the first scope that sets
// the attribute.
type scope struct {
	parent *scope
	attrs  map[string]string
}

func (s *scope) child(connection, owner string) *scope {
	return &scope{
		parent: s,
		attrs:  map[string]string{AttrConnection: connection, AttrOwner: owner},
	}
}

func (s *scope) lookup(attr string) string {
	for cur := s; cur != nil; cur = cur.parent {
		if v := cur.attrs[attr]; v != "" {
			return v
		}
	}
	return ""
}

// Resolve flattens the document into check specs in document order:
// features first, then top-level entities. Every check whose connection
// or owner cannot be found on any ancestor is reported.
func (d *Document) Resolve() ([]core.CheckSpec, error) {
	root := &scope{attrs: map[string]string{AttrConnection: d.Connection, AttrOwner: d.Owner}}

	var (
		specs []core.CheckSpec
		errs  []error
	)
	add := func(feature string, fs *scope, e Entity) {
		es := fs.child(e.Connection, e.Owner)
		for _, c := range e.Checks {
			cs := es.child(c.Connection, c.Owner)
			spec := core.CheckSpec{
				ConnectionRef: cs.lookup(AttrConnection),
				Owner:         cs.lookup(AttrOwner),
				FeatureName:   feature,
				EntityName:    e.Name,
				Pattern:       e.Pattern,
				Match:         e.Match,
				CheckType:     c.Type,
				Parameters:    maps.Clone(c.Parameters),
			}

			missing := false
			for _, attr := range []string{AttrConnection, AttrOwner} {
				if cs.lookup(attr) == "" {
					missing = true
					errs = append(errs, &UnresolvedAttributeError{
						File:      d.File,
						Path:      c.Path,
						Line:      c.Line,
						Attribute: attr,
						Check:     spec.DisplayName(),
					})
				}
			}
			if !missing {
				specs = append(specs, spec)
			}
		}
	}

	for _, f := range d.Features {
		fs := root.child(f.Connection, f.Owner)
		for _, e := range f.Entities {
			add(f.Name, fs, e)
		}
	}
	for _, e := range d.Entities {
		add("", root, e)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return specs, nil
}

// Parse loads and resolves a check script.
func Parse(data []byte) ([]core.CheckSpec, error) {
	doc, err := Load(data)
	if err != nil {
		return nil, err
	}
	return doc.Resolve()
}

// ParseFile loads and resolves the check script at path.
func ParseFile(path string) (*Document, []core.CheckSpec, error) {
	doc, err := LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	specs, err := doc.Resolve()
	if err != nil {
		return doc, nil, err
	}
	return doc, specs, nil
}
