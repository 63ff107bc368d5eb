// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/upscaler"
	"github.com/gogpu/wgpu/hal"
)

// fenceSignalValue is the value a submission signals on its fence.
const fenceSignalValue = 1

// Device is the part of hal.Device used to track submitted work.
type Device interface {
	CreateFence() (hal.Fence, error)
	DestroyFence(fence hal.Fence)
	Wait(fence hal.Fence, value uint64, timeout time.Duration) (bool, error)
}

// Fence adapts a hal.Fence to upscaler.Fence.
//
// A Fence is reference counted so one submission can be pushed into several
// ContextStates. Each ContextState releases it when drained or destroyed,
// and the hal.Fence is destroyed on the last release.
type Fence struct {
	device Device
	fence  hal.Fence
	value  uint64

	refs      atomic.Int32
	signalled atomic.Bool
}

// NewFence wraps fence, which completes when it reaches value on device.
// The caller holds one reference.
func NewFence(device Device, fence hal.Fence, value uint64) *Fence {
	f := &Fence{device: device, fence: fence, value: value}
	f.refs.Store(1)
	return f
}

// IsValid reports whether the fence wraps a live hal.Fence.
func (f *Fence) IsValid() bool {
	return f != nil && f.device != nil && f.fence != nil && f.refs.Load() > 0
}

// Poll reports whether the GPU has reached the fence value. It never blocks.
// Device errors are logged and reported as not complete.
func (f *Fence) Poll() bool {
	if f.signalled.Load() {
		return true
	}
	ok, err := f.device.Wait(f.fence, f.value, 0)
	if err != nil {
		upscaler.Logger().Warn("wgpu: fence poll failed", "value", f.value, "err", err)
		return false
	}
	if ok {
		f.signalled.Store(true)
	}
	return ok
}

// AddRef adds a reference for one more activity queue.
func (f *Fence) AddRef() {
	f.refs.Add(1)
}

// Release drops a reference and destroys the hal.Fence on the last one.
func (f *Fence) Release() {
	n := f.refs.Add(-1)
	switch {
	case n == 0:
		f.device.DestroyFence(f.fence)
	case n < 0:
		panic("wgpu: fence released too many times")
	}
}
