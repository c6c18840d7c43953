/*
Package dnserr provides the uniform error model used across netresolved.

Every error surfaced by config parsing, socket binding, or packet handling
is one of five kinds:

  - Message  - a free-form contextual error with no further cause.
  - IO       - a wrapped file, socket, or pipe failure.
  - AddrParse - a wrapped malformed-IP-literal failure.
  - Chain    - a message plus a wrapped inner error, for adding context
    as an error travels up a call stack.
  - List     - an aggregate of errors collected while doing several
    independent things (e.g. binding several listeners on reload) so one
    failure doesn't hide the others.

All five implement error and support errors.Is/errors.As via Unwrap.
*/
package dnserr
