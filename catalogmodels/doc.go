// Package catalogmodels holds the catalog document types and registers the item
// collection with the registry package.
package catalogmodels
