// Package lib holds infrastructure that does not belong to a request layer:
// background jobs (asynq) and email delivery (Resend).
package lib
