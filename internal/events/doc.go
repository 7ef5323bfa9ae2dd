// Package events provides types and interfaces for an event-driven architecture.
//
// This package defines event types and handler interfaces that allow for loose coupling
// between components in the system. The generation orchestrators emit events without
// knowing which handlers will process them, enabling better separation of concerns and
// reducing circular dependencies.
//
// The primary components are:
// - RunEvent: Represents an occurrence during a generation run
// - Handler: Interface for components that can handle events
// - Emitter: Interface for components that can emit events
package events
