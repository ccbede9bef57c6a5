// Package rubric scores a partition's canonical evidence against a
// theme rubric. A partition moves from no score to scored only when it
// holds enough most-recent evidence and every cited record appears in
// the ranked results for the theme query; otherwise the outcome is a
// null-stage score carrying the reason. Detected standards frameworks
// boost the stage and confidence per the rubric's rules.
package rubric
