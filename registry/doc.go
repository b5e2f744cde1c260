/*
Package registry maps Go document types to their collection metadata.

Backends look up the collection name, the fields covered by the text index and
the key template for a type instead of taking them as constructor arguments:

	registry.RegisterCollection[Item](registry.Collection{
	    Name:        "item",
	    TextFields:  []string{"title", "slogan", "description"},
	    KeyTemplate: "ITEM#{_id}",
	})

	c, ok := registry.GetCollection[Item]()

The registry is thread-safe and should be populated during initialization,
typically in init() functions next to the model definition.
*/
package registry
