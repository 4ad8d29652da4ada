// Package resource serializes access to the shared compute resource and
// accounts the memory and IO used by export jobs.
package resource
