// Package mxvalidate runs the validation suites of the MXNet nGraph
// distribution and reports their results.
package mxvalidate

// Version is the release of the mxvalidate tool.
const Version = "0.4.0"
