// Package pipeline runs a complete AppDir build: trace, filter, classify,
// materialize, prune and emit. Stages run one after the other and any
// error aborts the build.
package pipeline
