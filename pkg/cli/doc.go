// Package cli builds the digestmail command tree: configuration and .env
// loading, the send pipeline, cursor inspection and listing commands.
package cli
