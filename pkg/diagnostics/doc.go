/*
Package diagnostics controls the non-fatal warnings emitted while building
handler tables.

The process-wide default is read once from the FOLDTABLE_ENV environment
variable: any value other than "production", including an unset variable,
enables warnings. Callers that want deterministic behavior inject a Warner
instead (see Recorder for tests).
*/
package diagnostics
