package model

import "github.com/cayleygraph/quad"

// Link is a document to crawl next
type Link struct {
	URL string `json:"url"`
}

// Registration is one (instance, class) entry of a type index document
type Registration struct {
	Instance quad.Value `json:"instance"` // Registered instance document or container
	Class    quad.Value `json:"class"`    // Registered RDF class
}

// InstanceURL returns the registered instance as a plain IRI string
func (r Registration) InstanceURL() string {
	if iri, ok := r.Instance.(quad.IRI); ok {
		return string(iri)
	}
	if r.Instance == nil {
		return ""
	}
	return r.Instance.String()
}
