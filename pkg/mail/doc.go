// Package mail delivers rendered digests over SMTP, the Resend HTTP API or
// the process log.
package mail
