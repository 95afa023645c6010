// Package monitor implements the gRPC transport for the climate monitor.
//
// The service is described by hand over protobuf well-known types
// (google.protobuf.Empty and google.protobuf.Struct), so clients need no
// generated stubs: any gRPC tool that speaks Struct can drive it.
package monitor
