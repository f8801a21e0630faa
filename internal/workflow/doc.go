// Package workflow holds the state-transition rules of the grant approval process.
//
// Every function here is pure: it receives an application snapshot and returns the
// next snapshot without touching the input. Committee decisions are folded into a
// single collective outcome by CommitteeOutcome; Dean and Principal actions move the
// application forward unilaterally. Callers are responsible for loading, locking and
// committing snapshots.
package workflow
