//go:build carouseldebug

package gesture

// strictContracts turns malformed samples into panics. Enabled with
// -tags carouseldebug.
const strictContracts = true
