// Package domain contains the core business entities of the application:
// the Word records produced by file ingestion and the validation rules that
// apply to them. It is independent of any storage or delivery mechanism.
package domain
