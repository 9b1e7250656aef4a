// Package timeline provides point-in-time readable containers for
// state that is mutated by replaying an ordered record log. Each
// container holds its current value plus a bounded history of
// superseded values tagged with the log offset at which they stopped
// being current, so readers can ask "what was the value as of offset
// P" while the single log-apply writer keeps going.
//
// Writers publish immutable state atomically instead of taking locks,
// so reads never block replay and replay never waits for reads. The
// containers do not decide retention: compaction is driven by the
// surrounding snapshot machinery, which knows the oldest offset any
// reader still needs.
package timeline
