// Package research exposes news retrieval and the semantic index as tools.
package research
