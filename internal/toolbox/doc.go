// Package toolbox holds the small generic helpers the rest of redg builds on.
//
// It has no internal imports. Everything here is stateless except
// OrderedMap, which is a plain insertion-ordered container.
package toolbox
