// Package config provides configuration for the fact-grounding core.
//
// Settings come from FINSIGHT_* environment variables with sensible defaults
// (canonical currency/scale, cache TTLs, accounting standard). The concept
// mapping table — internal metric name to taxonomy concept candidates per
// standard — ships as an embedded YAML default and can be replaced with an
// external file via FINSIGHT_CONCEPT_MAP_PATH. Both are loaded once at
// construction and are read-only for the process lifetime.
package config
