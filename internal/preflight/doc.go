// Package preflight provides readiness checks for the filesystem paths and
// evidence sources visualverify depends on.
//
// The CLI "visualverify check" command runs RunAll and prints one row per
// check. Missing provider keys are reported as optional failures: the engine
// still runs without them, it just returns UNVERIFIED more often.
package preflight
