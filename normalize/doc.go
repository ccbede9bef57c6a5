// Package normalize turns a partition's raw Bronze evidence into its
// canonical Silver view: duplicate extracts are grouped by content
// hash, the latest copy of each fact is flagged, and confidence is
// decayed by age under a pluggable policy. The transform is pure and
// re-runnable; each run replaces the previous Silver output in full.
package normalize
