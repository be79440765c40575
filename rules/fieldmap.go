//go:build ruleguard

// Package gorules contains custom linting rules for golangci-lint via ruleguard.
package gorules

import "github.com/quasilyte/go-ruleguard/dsl"

// StdErrorsInInternal flags stdlib error construction inside internal
// packages. Errors there carry a category for the HTTP status mapping and
// telemetry, so they go through the errors builder.
func StdErrorsInInternal(m dsl.Matcher) {
	m.Import("errors")

	m.Match(`errors.New($msg)`).
		Where(m.File().PkgPath.Matches(`/internal/`) &&
			!m.File().PkgPath.Matches(`/internal/errors$`) &&
			!m.File().Name.Matches(`_test\.go$`) &&
			m["msg"].Type.Is("string")).
		Report("use errors.Newf($msg).Category(...).Build() from internal/errors")
}

// PrintInLibraries flags direct printing outside cmd and main. Libraries
// log through the module logger.
func PrintInLibraries(m dsl.Matcher) {
	m.Match(`fmt.Println($*_)`, `fmt.Printf($*_)`, `log.Printf($*_)`, `log.Println($*_)`).
		Where(m.File().PkgPath.Matches(`/internal/`) && !m.File().Name.Matches(`_test\.go$`)).
		Report("use logger.Global().Module(...) instead of printing from a library package")
}

// WaitGroupGo prefers wg.Go over the Add/Done pair.
func WaitGroupGo(m dsl.Matcher) {
	m.Match(`go func() { defer $wg.Done(); $*_ }()`).
		Where(m["wg"].Type.Is("*sync.WaitGroup") || m["wg"].Type.Is("sync.WaitGroup")).
		Report("use $wg.Go(func() { ... })").
		Suggest("$wg.Go(func() { $*_ })")
}

// UnclosedResponseBody flags http responses whose body is read without a
// deferred close in the same function.
func UnclosedResponseBody(m dsl.Matcher) {
	m.Match(`$resp, $err := $c.Do($req); $*_; io.ReadAll($resp.Body)`).
		Where(m["resp"].Type.Is("*http.Response")).
		Report("close $resp.Body after a successful Do")
}
