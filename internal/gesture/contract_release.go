//go:build !carouseldebug

package gesture

const strictContracts = false
