// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package device

import "errors"

// Sentinel errors returned by Device implementations.
var (
	// ErrDeviceLost is returned by every operation while the device is lost.
	ErrDeviceLost = errors.New("device: device lost")

	// ErrReleased is returned when a released or stale resource is used.
	ErrReleased = errors.New("device: resource released")

	// ErrInvalidDescriptor is returned for zero sizes, unsupported formats
	// or pixel buffers that do not match the descriptor.
	ErrInvalidDescriptor = errors.New("device: invalid descriptor")

	// ErrForeignResource is returned when a resource created by another
	// device is passed in.
	ErrForeignResource = errors.New("device: resource belongs to another device")
)
