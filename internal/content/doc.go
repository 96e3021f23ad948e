// Package content aggregates a directory of Markdown files into a sorted
// manifest and exposes it as a generated module for "content:" specifiers.
//
//	import posts from "content:./content/blog";
//
// The generated module imports one "markdown:" module per item, so each
// entry's url is resolved by the markdown loader rather than inlined.
package content
