// Package logger wraps zap and carries a sugared logger through context.Context.
//
// Every long-running component (dispatcher, workers, device drivers, the gRPC
// API) receives a context and logs through FromContext, so names and fields
// attached with WithName/WithKV follow the call chain.
package logger
