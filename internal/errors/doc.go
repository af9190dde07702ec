// Package errors provides structured, coded errors for the Chrono storefront.
//
// Every error carries a short registered code (e.g., "E080") that maps to:
//   - A category (config, validation, catalog, session, protocol, cli)
//   - A short message describing the error
//   - A detailed explanation
//
// The HTTP layer maps categories to status codes and writes the JSON form;
// the CLI prints the terminal form.
//
// # Usage
//
//	err := errors.New("E080").
//	    WithFields("First name", "Valid email").
//	    WithSuggestion("Complete the highlighted fields and accept the terms")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E080: Required field missing
//	//
//	//   Missing: First name, Valid email
//	//
//	//   Hint: Complete the highlighted fields and accept the terms
package errors
