// SPDX-License-Identifier: MPL-2.0

// Package container provides a thin abstraction over container engine CLIs
// (Docker/Podman) for the container checks: reading a container's state and
// running commands inside it.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the
// preferred engine is unavailable, or AutoDetectEngine() for preference-less
// detection (Podman is tried first).
package container
