// Package smtp implements the mail.Mailer interface over a plain SMTP
// server. Transient delivery failures (network errors and 4xx replies) are
// retried with exponential backoff and jitter; permanent 5xx replies fail
// immediately.
package smtp
