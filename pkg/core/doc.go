// Package core provides a small, stable facade over SafePush's internal
// engine for external integrations. It deliberately re-exports a narrow API
// surface so commit tooling and third-party automation can depend on a
// stable import path without exposing internal implementation packages.
//
// Example:
//
//	res, err := core.Scan(context.Background(), core.Options{Root: "."})
//	if err != nil { /* handle */ }
//	if res.Verdict.Blocking() { /* refuse the commit */ }
//	_ = core.MarshalResult(os.Stdout, res)
package core
