// Package logging configures the process-wide structured logger.
//
// Logs are slog JSON or text with an optional redaction layer that masks
// patient identifiers before they reach the output. Claim evaluation logs
// routinely carry claim and provider identifiers; patient identifiers are
// protected health information and never leave the process unmasked.
package logging
