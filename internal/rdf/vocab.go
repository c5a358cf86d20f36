// Package rdf holds the RDF term helpers, vocabulary IRIs and triple streams
// shared by the extractor and its collaborators.
package rdf

import (
	"github.com/cayleygraph/quad"
	"github.com/cayleygraph/quad/voc/rdf"
)

// Solid terms namespace
const SolidNS = "http://www.w3.org/ns/solid/terms#"

var (
	// RDFType is the full rdf:type IRI
	RDFType = quad.IRI(rdf.Type).Full()

	SolidTypeRegistration  = quad.IRI(SolidNS + "TypeRegistration")
	SolidForClass          = quad.IRI(SolidNS + "forClass")
	SolidInstance          = quad.IRI(SolidNS + "instance")
	SolidInstanceContainer = quad.IRI(SolidNS + "instanceContainer")
	SolidPublicTypeIndex   = quad.IRI(SolidNS + "publicTypeIndex")
	SolidPrivateTypeIndex  = quad.IRI(SolidNS + "privateTypeIndex")
)
