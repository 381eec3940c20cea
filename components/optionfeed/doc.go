// Package optionfeed serves named option sets over HTTP in the document
// layout the url option source understands, so option lists such as
// suppliers or dishes can live outside the form definitions.
//
// The handler responds to GET and HEAD requests for <route>/<name>. The lang
// parameter narrows labels to one language, q filters options by value or
// label and limit caps the result.
package optionfeed
