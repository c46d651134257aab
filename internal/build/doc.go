// Package build runs the documentation pipeline for one configuration.
//
// Every execution path (the build and watch commands, tests) routes through
// BuildService: load the class model, index it, resolve references, emit the
// site, optionally write the docset and verify links, and record the build
// manifest next to the pages.
package build
