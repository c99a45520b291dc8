// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/duynguyendang/tripsim/pkg/ontology"
)

// Hierarchy returns a small ontology covering the types used by the
// "the grass is green" and "I want to buy a computer" examples.
func Hierarchy(t testing.TB) *ontology.Hierarchy {
	t.Helper()
	h, err := ontology.New([]ontology.Type{
		{Name: "ROOT"},
		{Name: "PHYS-OBJECT", Parent: "ROOT"},
		{Name: "PLANT", Parent: "PHYS-OBJECT"},
		{Name: "GRASS", Parent: "PLANT"},
		{Name: "PERSON", Parent: "PHYS-OBJECT"},
		{Name: "COMPUTER", Parent: "PHYS-OBJECT"},
		{Name: "PROPERTY-VAL", Parent: "ROOT"},
		{Name: "COLOR-VAL", Parent: "PROPERTY-VAL"},
		{Name: "GREEN", Parent: "COLOR-VAL"},
		{Name: "SITUATION-ROOT"},
		{Name: "HAVE-PROPERTY", Parent: "SITUATION-ROOT"},
		{Name: "WANT", Parent: "SITUATION-ROOT"},
		{Name: "PURCHASE", Parent: "SITUATION-ROOT"},
	})
	if err != nil {
		t.Fatalf("build test ontology: %v", err)
	}
	return h
}
