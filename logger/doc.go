// Package logger provides structured logging for blobgate on zerolog.
//
// Loggers are scoped per component and take fields as plain maps so call
// sites stay free of zerolog types:
//
//	log := logger.WithComponent("gateway")
//	log.Error("upload failed", logger.Fields(logger.FieldKey, key, logger.FieldError, err))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
package logger
