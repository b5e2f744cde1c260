/*
Package errors provides semantic error types for the itemstore library.

The package separates the three ways a catalog operation can fail, each checkable
with the standard errors.Is() function or the provided helper functions:

	var (
	    ErrNotFound        = errors.New("entity not found")
	    ErrStoreFailure    = errors.New("store operation failed")
	    ErrMalformedResult = errors.New("malformed store result")
	    ErrInvalidInput    = errors.New("invalid input")
	)

Usage:

	n, err := dao.GetNumItems(ctx, "Apparel")
	if err != nil {
	    if errors.IsMalformedResult(err) {
	        // the count stage produced no row
	    }
	    return err
	}

	item, err := dao.GetItem(ctx, 42)
	if errors.IsNotFound(err) {
	    // no item with that id
	}

StoreError wraps the backend error and supports errors.Unwrap, so driver errors
such as mongo.ErrClientDisconnected remain reachable with errors.Is/As.
*/
package errors
