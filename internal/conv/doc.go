// Package conv converts between integer types with overflow checks.
//
// Use it for values read from untrusted input such as snapshot headers and
// for counts that must fit a fixed-width field. Plain casts are fine where
// the range is already bounded.
package conv
