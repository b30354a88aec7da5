// Package facts resolves internal metric names to filing-taxonomy concepts
// and serves normalized, citable facts.
//
// A Store walks the ordered concept candidates for a metric, fetches the
// first one the upstream source has data for, runs it through unit and scale
// normalization, and attaches a citation with the filing accession, archive
// URL, and amendment status. Results are cached read-through; concurrent
// lookups for the same key collapse to one upstream call.
//
// Absences are typed errors, not faults: an unmapped metric is
// MAPPING_NOT_FOUND and a mapped metric with no data is FACT_NOT_FOUND, both
// matchable with the errors package predicates.
package facts
