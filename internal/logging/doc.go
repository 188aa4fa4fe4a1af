// Package logging provides concrete implementations of the pgreap.Logger interface.
//
//   - ConsoleLogger: prefixed lines on stderr (or any writer), one write per message
//   - NullLogger: discards everything
//
// Both are safe for concurrent use; the dropper logs from many goroutines.
package logging
