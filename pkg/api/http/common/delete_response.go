package common

// DeleteResponse is the response from a delete operation, specific to HTTP.
type DeleteResponse struct {
	// Deleted is the number of objects removed.
	//
	// Users should verify that this is the number of objects they expected
	// to be removed if it is important.
	Deleted int64 `json:"deleted"`
}
