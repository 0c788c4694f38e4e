// Package model defines the normalized language-model boundary consumed by
// the planning agent and the capability adapters. The control core depends
// only on the Request/Response contract here, never on how a provider
// produces its reasoning; provider adapters live in the subpackages.
package model
