// Package dedupe computes a canonical version of a nested attendance or
// assessment record. Semesters and months collapse by number keeping the
// latest occurrence; subjects are validated and then collapse by code (or
// name) keeping the earliest occurrence. The two tie-break directions are
// intentional and both are preserved.
//
// Everything here is pure: inputs are never modified, and the functions are
// safe to call concurrently on independent records.
package dedupe
