// Package metalog describes the contracts between the cluster
// membership core and the replicated metadata log that drives it. The
// log orders and durably stores membership records and assigns each
// one a strictly increasing offset; this package defines the record
// kinds and the narrow append and apply interfaces the core is
// consumed through. The consensus layer itself lives elsewhere.
package metalog
