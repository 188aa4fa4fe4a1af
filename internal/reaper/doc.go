// Package reaper finds throwaway databases by name and drops them.
//
// A run has three phases:
//
//  1. Discovery lists the databases matching the pattern on the server and
//     keeps only the names that fully match it client-side as well.
//  2. The gate stops on dry run, or asks the Approver unless AssumeYes is set.
//  3. The dropper runs one terminate-then-drop sequence per name, at most
//     Workers(MaxParallel, n) at a time.
//
// Per-database failures are counted and reported; they never stop the other
// sequences. Discovery failures end the run before anything is dropped.
package reaper
