// Package errors provides the error taxonomy shared by the gateway and its
// HTTP boundary. Every failure that reaches a client is an *AppError carrying
// a machine-readable code, a safe human message and the HTTP status to use;
// backend detail travels only in Cause, which is logged and never serialized.
package errors
