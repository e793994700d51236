// Package arbiterservice contains the migration arbiter: it scores agreement
// between a legacy and a modern implementation of the same operation and
// steers the router's canary weight toward the modern one as confidence grows.
//
// The module keeps domain/application logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package arbiterservice
