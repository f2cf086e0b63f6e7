// SPDX-License-Identifier: MPL-2.0

// Package probe polls a registered check function until it reports an expected
// value, an attempt budget runs out, or a wall-clock deadline passes.
//
// Every attempt runs in its own OS process (an execution unit) so that a check
// which hangs or misbehaves can always be killed. The child is the current
// binary re-executed; check functions are therefore referenced by name and must
// be registered at init time in both parent and child:
//
//	func init() {
//		probe.Register("marker-file", func(ctx context.Context, args probe.Args) (any, error) {
//			path, err := args.String("path")
//			if err != nil {
//				return nil, err
//			}
//			_, err = os.Stat(path)
//			return err == nil, nil
//		})
//	}
//
//	func main() {
//		probe.Init() // serves the attempt and exits when running as an execution unit
//		...
//	}
//
// A run ends with exactly one Outcome:
//
//   - OutcomeSuccess: the check returned ExpectedValue.
//   - OutcomeUnexpectedError: the check failed with an error kind that is not
//     listed in ExpectedErrors. No further attempts are made.
//   - OutcomeCountExceeded: Count attempts were made without success.
//   - OutcomeTimeoutExceeded: Timeout elapsed without success.
//   - OutcomeCancelled: the context was cancelled or Terminate was called.
//
// When both budgets run out on the same iteration the count wins, so callers
// can tell "gave up after N tries" from "gave up after T seconds" reliably.
//
// Errors cross the process boundary as a registered kind plus a message. Use
// RegisterErrorKind to make a sentinel error both listable in ExpectedErrors
// and matchable with errors.Is on the parent side.
//
// A Config with both Timeout and Count set to Unbounded only ends on success,
// an unexpected error, or cancellation. Bounding such a run is the caller's
// responsibility.
package probe
